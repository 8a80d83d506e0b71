package catalog

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"
)

func TestComputeVersion_OrderIndependent(t *testing.T) {
	t.Parallel()

	ids := []string{"org.gnome.Calculator", "firefox", "code", "1password", "gimp"}
	want := ComputeVersion(ids)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]string(nil), ids...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := ComputeVersion(shuffled); got != want {
			t.Fatalf("ComputeVersion(%v) = %q, want %q", shuffled, got, want)
		}
	}
}

func TestComputeVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []string
		same bool
	}{
		{"duplicates ignored", []string{"a", "b", "b"}, []string{"b", "a"}, true},
		{"different sets", []string{"a", "b"}, []string{"a", "c"}, false},
		{"concatenation is not equal", []string{"ab"}, []string{"a", "b"}, false},
		{"empty vs one", nil, []string{"a"}, false},
		{"empty is deterministic", nil, []string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ComputeVersion(tt.a) == ComputeVersion(tt.b)
			if got != tt.same {
				t.Errorf("ComputeVersion(%v) == ComputeVersion(%v) is %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestSortKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		before string
		after  string
	}{
		{"case insensitive", "apple", "Banana"},
		{"letters before digits", "Zoom", "9GAG"},
		{"letters before hash", "Zoom", "#Hashtag"},
		{"digits compared among themselves", "1Password", "9GAG"},
		{"non ascii letter before digit", "Émile", "2048"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if SortKey(tt.before) >= SortKey(tt.after) {
				t.Errorf("SortKey(%q) should sort before SortKey(%q)", tt.before, tt.after)
			}
		})
	}
}

func TestSortEntries_NumericLast(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{ID: "a", Label: "9GAG"},
		{ID: "b", Label: "Apple"},
		{ID: "c", Label: "#Hashtag"},
	}
	SortEntries(entries)

	if entries[0].Label != "Apple" {
		t.Fatalf("first = %q, want Apple (order %v)", entries[0].Label, IDs(entries))
	}
	for _, e := range entries[1:] {
		if e.Label != "9GAG" && e.Label != "#Hashtag" {
			t.Errorf("unexpected trailing entry %q", e.Label)
		}
	}
}

func TestSortEntries_FallsBackToID(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{ID: "zeta"},
		{ID: "x", Label: "Alpha"},
		{ID: "beta"},
	}
	SortEntries(entries)

	got := IDs(entries)
	want := []string{"x", "beta", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestMetadataRecord_IsStale(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ttl := time.Hour

	tests := []struct {
		name    string
		updated time.Time
		want    bool
	}{
		{"zero time is stale", time.Time{}, true},
		{"recent", now.Add(-time.Minute), false},
		{"just under ttl", now.Add(-ttl + time.Second), false},
		{"past ttl", now.Add(-ttl - time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := MetadataRecord{ID: "x", Label: "X", LastUpdated: tt.updated}
			if got := r.IsStale(ttl, now); got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Entry{ID: "web:cats", Kind: KindWebSearch})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("Unmarshal(%s): %v", data, err)
	}
	if e.Kind != KindWebSearch {
		t.Errorf("Kind = %v, want %v", e.Kind, KindWebSearch)
	}

	if err := json.Unmarshal([]byte(`{"kind":"bogus"}`), &e); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestDisplayLabel(t *testing.T) {
	t.Parallel()

	if got := (Entry{ID: "firefox"}).DisplayLabel(); got != "firefox" {
		t.Errorf("DisplayLabel() = %q, want id fallback", got)
	}
	if got := (Entry{ID: "firefox", Label: "Firefox"}).DisplayLabel(); got != "Firefox" {
		t.Errorf("DisplayLabel() = %q, want label", got)
	}
}
