package cache

import (
	"encoding/json"

	"github.com/klauspost/compress/zstd"
)

// Both are safe for concurrent EncodeAll/DecodeAll calls.
var (
	blobEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	blobDecoder, _ = zstd.NewReader(nil)
)

func encodeBlob(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return blobEncoder.EncodeAll(data, nil), nil
}

func decodeBlob(blob []byte, v any) error {
	data, err := blobDecoder.DecodeAll(blob, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
