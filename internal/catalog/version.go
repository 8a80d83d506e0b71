package catalog

import (
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Version fingerprints the identifier set reported by a Provider.
// The zero value means "unknown".
type Version string

// ComputeVersion hashes the sorted, deduplicated identifier set.
func ComputeVersion(ids []string) Version {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	d := xxhash.New()
	for _, id := range sorted {
		_, _ = d.WriteString(id)
		// NUL cannot appear in an identifier, so ["ab"] and ["a","b"] differ
		_, _ = d.Write([]byte{0})
	}
	return Version(strconv.FormatUint(d.Sum64(), 16) + "-" + strconv.Itoa(len(sorted)))
}
