// Package history tracks which catalog entries were launched and when.
// This enables `appcat recent` to list the most recently launched entries.
package history

import (
	"cmp"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/raphi011/appcat/internal/storage"
)

// Key is the store record holding the history.
const Key = "history"

// MaxEntries bounds the history; the least recently launched entries are dropped.
const MaxEntries = 200

// Entry is one launched catalog entry
type Entry struct {
	ID           string    `json:"id"`
	Label        string    `json:"label,omitempty"`
	Count        int       `json:"count"`
	LastLaunched time.Time `json:"last_launched"`
}

// History stores launched entries
type History struct {
	Entries []Entry `json:"entries"`
}

// Load reads the history from s
func Load(s storage.Store) (*History, error) {
	data, err := s.ReadBytes(Key)
	if errors.Is(err, storage.ErrNotExist) {
		return &History{}, nil
	}
	if err != nil {
		return nil, err
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		// Corrupted - start fresh
		return &History{}, nil
	}
	return &h, nil
}

// Save writes the history to s
func (h *History) Save(s storage.Store) error {
	return storage.SaveJSON(s, Key, h)
}

// Record counts a launch of id at now.
func (h *History) Record(id, label string, now time.Time) {
	i := slices.IndexFunc(h.Entries, func(e Entry) bool { return e.ID == id })
	if i < 0 {
		h.Entries = append(h.Entries, Entry{ID: id})
		i = len(h.Entries) - 1
	}
	e := &h.Entries[i]
	e.Count++
	e.LastLaunched = now
	if label != "" {
		e.Label = label
	}

	if len(h.Entries) > MaxEntries {
		h.Entries = h.Recent(MaxEntries)
	}
}

// Recent returns up to n entries, most recently launched first.
// n <= 0 returns all entries.
func (h *History) Recent(n int) []Entry {
	entries := slices.Clone(h.Entries)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.LastLaunched.Compare(a.LastLaunched)
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Frequent returns up to n entries, most launched first.
func (h *History) Frequent(n int) []Entry {
	entries := slices.Clone(h.Entries)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return b.LastLaunched.Compare(a.LastLaunched)
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// RecordLaunch records a launch of id in the history stored in s.
// Concurrent appcat processes serialize on the store lock.
func RecordLaunch(s storage.Store, id, label string) error {
	return storage.WithLock(s, func() error {
		h, err := Load(s)
		if err != nil {
			return err
		}
		h.Record(id, label, time.Now())
		return h.Save(s)
	})
}
