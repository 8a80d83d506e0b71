package catalog

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by a Provider when an identifier no longer
// resolves (uninstalled, hidden or otherwise not launchable).
var ErrNotFound = errors.New("catalog entry not found")

// Kind classifies an entry.
type Kind int

const (
	KindApp Kind = iota
	KindMath
	KindContact
	KindWebSearch
	KindMapsSearch
	KindVideoSearch
	KindStoreSearch
)

var kindNames = map[Kind]string{
	KindApp:         "app",
	KindMath:        "math",
	KindContact:     "contact",
	KindWebSearch:   "web",
	KindMapsSearch:  "maps",
	KindVideoSearch: "video",
	KindStoreSearch: "store",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown entry kind %q", text)
	}
	*k = parsed
	return nil
}

// Synthetic reports whether entries of this kind are generated per query.
func (k Kind) Synthetic() bool {
	return k != KindApp
}

// Entry is one launchable thing.
type Entry struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Label string `json:"label,omitempty"` // resolved lazily, may be empty
	// Payload is the launch target for KindApp and the literal query text or
	// computed value for synthetic kinds.
	Payload string `json:"payload,omitempty"`
}

// DisplayLabel returns the label, falling back to the raw identifier.
func (e Entry) DisplayLabel() string {
	if e.Label != "" {
		return e.Label
	}
	return e.ID
}

// IDs returns the identifiers of entries in order.
func IDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// MetadataRecord is the cached label of a real entry.
type MetadataRecord struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Folded      string    `json:"folded"` // case-folded Label, used for sort and search
	LastUpdated time.Time `json:"last_updated"`
}

// NewMetadataRecord builds a record for a freshly resolved label.
func NewMetadataRecord(id, label string, now time.Time) MetadataRecord {
	return MetadataRecord{
		ID:          id,
		Label:       label,
		Folded:      Fold(label),
		LastUpdated: now,
	}
}

// IsStale returns true if the record is older than ttl at now.
// Stale records are still usable as a fallback value.
func (r MetadataRecord) IsStale(ttl time.Duration, now time.Time) bool {
	if r.LastUpdated.IsZero() {
		return true
	}
	return now.Sub(r.LastUpdated) > ttl
}
