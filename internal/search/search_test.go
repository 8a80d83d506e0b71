package search

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/dispatch"
	"github.com/raphi011/appcat/internal/loader"
)

func apps(labels ...string) []catalog.Entry {
	out := make([]catalog.Entry, len(labels))
	for i, label := range labels {
		out[i] = catalog.Entry{ID: fmt.Sprintf("app%d", i), Kind: catalog.KindApp, Label: label}
	}
	return out
}

func appLabels(results []catalog.Entry) []string {
	var out []string
	for _, e := range results {
		if e.Kind == catalog.KindApp {
			out = append(out, e.Label)
		}
	}
	return out
}

func kinds(results []catalog.Entry) []catalog.Kind {
	out := make([]catalog.Kind, len(results))
	for i, e := range results {
		out[i] = e.Kind
	}
	return out
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	worker := dispatch.NewQueue("search", nil)
	ui := dispatch.NewQueue("ui", nil)
	t.Cleanup(func() {
		worker.Close()
		ui.Close()
	})
	return New(context.Background(), worker, ui, func([]catalog.Entry) {}, opts...)
}

func TestSearch_Ranking(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	e.SetCatalog(apps("Gmail", "Games", "1Password"))

	got := e.Search("ga")

	if labels := appLabels(got); !slices.Equal(labels, []string{"Games", "Gmail"}) {
		t.Errorf("app results = %v, want [Games Gmail]", labels)
	}
	wantKinds := []catalog.Kind{
		catalog.KindApp, catalog.KindApp,
		catalog.KindStoreSearch, catalog.KindMapsSearch, catalog.KindVideoSearch, catalog.KindWebSearch,
	}
	if k := kinds(got); !slices.Equal(k, wantKinds) {
		t.Errorf("kinds = %v, want %v", k, wantKinds)
	}
}

func TestSearch_Buckets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		catalog []string
		query   string
		want    []string
	}{
		{
			name:    "exact before prefix and substring",
			catalog: []string{"Mailbox", "Gmail", "Mail"},
			query:   "mail",
			want:    []string{"Mail", "Gmail", "Mailbox"},
		},
		{
			name:    "case insensitive and trimmed",
			catalog: []string{"Firefox", "Files"},
			query:   "  FIRE ",
			want:    []string{"Firefox"},
		},
		{
			name:    "single rune skips fuzzy",
			catalog: []string{"Terminal", "Settings", "Maps"},
			query:   "t",
			want:    []string{"Settings", "Terminal"},
		},
		{
			name:    "fuzzy after substring",
			catalog: []string{"Text Editor", "Settings", "Maps"},
			query:   "tt",
			want:    []string{"Settings", "Text Editor"},
		},
		{
			name:    "no match",
			catalog: []string{"Firefox"},
			query:   "zzz",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEngine(t)
			e.SetCatalog(apps(tt.catalog...))
			if got := appLabels(e.Search(tt.query)); !slices.Equal(got, tt.want) {
				t.Errorf("Search(%q) apps = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSearch_EmptyQuerySortsNumericLast(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	e.SetCatalog(apps("9GAG", "Apple", "#Hashtag"))

	got := appLabels(e.Search(""))
	if len(got) != 3 || got[0] != "Apple" {
		t.Fatalf("Search(\"\") = %v, want Apple first", got)
	}
	rest := slices.Sorted(slices.Values(got[1:]))
	if !slices.Equal(rest, []string{"#Hashtag", "9GAG"}) {
		t.Errorf("Search(\"\") tail = %v", got[1:])
	}
}

func TestSearch_MathShortCircuits(t *testing.T) {
	t.Parallel()

	var scanned atomic.Int64
	e := newEngine(t, WithHidden(func(string) bool {
		scanned.Add(1)
		return false
	}))
	e.SetCatalog(apps("Calculator", "2048"))

	got := e.Search("2+2*3")

	if len(got) != 1 {
		t.Fatalf("Search(2+2*3) returned %d results, want 1", len(got))
	}
	if got[0].Kind != catalog.KindMath || got[0].Label != "2+2*3 = 8" || got[0].Payload != "8" {
		t.Errorf("math result = %+v", got[0])
	}
	if n := scanned.Load(); n != 0 {
		t.Errorf("catalog scanned %d times for a math query", n)
	}
}

func TestSearch_NeverEmpty(t *testing.T) {
	t.Parallel()

	queries := []string{"x", "zzzz", "   q", "1Password", "()"}
	e := newEngine(t)
	for _, q := range queries {
		if got := e.Search(q); len(got) < len(Fallbacks) {
			t.Errorf("Search(%q) returned %d results, want >= %d", q, len(got), len(Fallbacks))
		}
	}

	e.SetCatalog(apps("Firefox"))
	got := e.Search("fire")
	if len(got) != 1+len(Fallbacks) {
		t.Errorf("Search(fire) returned %d results, want %d", len(got), 1+len(Fallbacks))
	}
	for _, r := range got[1:] {
		if r.Payload != "fire" {
			t.Errorf("fallback %v payload = %q, want %q", r.Kind, r.Payload, "fire")
		}
	}
}

func TestSearch_Contacts(t *testing.T) {
	t.Parallel()

	e := newEngine(t, WithContactLimit(5))
	e.SetContacts([]string{"Anna", "Daniel", "Hannah", "Joanna", "Ivan", "Stan", "Diana", "Bob"})

	got := e.Search("an")

	var contacts []string
	for _, r := range got {
		if r.Kind == catalog.KindContact {
			contacts = append(contacts, r.Label)
		}
	}
	want := []string{"Anna", "Daniel", "Hannah", "Joanna", "Ivan"}
	if !slices.Equal(contacts, want) {
		t.Errorf("contacts = %v, want %v", contacts, want)
	}
	if got[len(got)-1].Kind != catalog.KindWebSearch {
		t.Errorf("fallbacks not appended after contacts")
	}
}

func TestSearch_Hidden(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	e.SetCatalog(apps("Steam", "Stocks"))
	e.SetHidden(func(id string) bool { return id == "app0" })

	if got := appLabels(e.Search("st")); !slices.Equal(got, []string{"Stocks"}) {
		t.Errorf("Search(st) = %v, want [Stocks]", got)
	}
	if got := appLabels(e.Search("")); !slices.Equal(got, []string{"Stocks"}) {
		t.Errorf("Search(\"\") = %v, want [Stocks]", got)
	}
}

func TestSearch_EmptyQueryMemo(t *testing.T) {
	t.Parallel()

	var scanned atomic.Int64
	e := newEngine(t, WithHidden(func(string) bool {
		scanned.Add(1)
		return false
	}))
	e.SetCatalog(apps("B", "A"))

	first := e.Search("")
	n := scanned.Load()
	second := e.Search("")
	if scanned.Load() != n {
		t.Error("empty query recomputed without a catalog change")
	}
	if !slices.Equal(first, second) {
		t.Errorf("memoized result differs: %v vs %v", first, second)
	}

	// The memo is a copy, callers may modify their result
	second[0].Label = "changed"
	if e.Search("")[0].Label != "A" {
		t.Error("caller mutation leaked into the memo")
	}

	e.OnSnapshot(loader.Snapshot{All: apps("C", "B", "A")})
	if got := appLabels(e.Search("")); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Errorf("Search(\"\") after snapshot = %v", got)
	}

	n = scanned.Load()
	e.SetContacts([]string{"Zed"})
	e.Search("")
	if scanned.Load() == n {
		t.Error("contact refresh did not invalidate the memo")
	}
}

func TestSearch_SyntheticMemo(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	first := e.Search("foo")
	size := e.synth.len()
	second := e.Search("foo")

	if e.synth.len() != size {
		t.Errorf("memo grew from %d to %d on a repeated query", size, e.synth.len())
	}
	if !slices.Equal(first, second) {
		t.Errorf("repeated query returned different entries")
	}

	for i := range maxSynthetics * 2 {
		e.Search(fmt.Sprintf("q%d", i))
	}
	if n := e.synth.len(); n > maxSynthetics {
		t.Errorf("memo holds %d entries, want <= %d", n, maxSynthetics)
	}
}

type collector struct {
	mu      sync.Mutex
	results [][]catalog.Entry
}

func (c *collector) add(r []catalog.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) all() [][]catalog.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.results)
}

func TestEngine_DebounceCollapses(t *testing.T) {
	t.Parallel()

	worker := dispatch.NewQueue("search", nil)
	ui := dispatch.NewQueue("ui", nil)
	t.Cleanup(func() {
		worker.Close()
		ui.Close()
	})
	c := &collector{}
	e := New(context.Background(), worker, ui, c.add, WithDebounce(50*time.Millisecond))
	e.SetCatalog(apps("Gmail", "Games"))

	for _, q := range []string{"g", "ga", "gam", "game"} {
		e.SetQuery(q)
	}
	dispatch.Settle(worker, ui)

	if n := e.runs.Load(); n != 1 {
		t.Errorf("ran %d searches, want 1", n)
	}
	got := c.all()
	if len(got) != 1 {
		t.Fatalf("delivered %d result lists, want 1", len(got))
	}
	if labels := appLabels(got[0]); !slices.Equal(labels, []string{"Games"}) {
		t.Errorf("delivered %v, want results for %q", labels, "game")
	}
}

func TestEngine_DeliversEachCompletedQuery(t *testing.T) {
	t.Parallel()

	worker := dispatch.NewQueue("search", nil)
	ui := dispatch.NewQueue("ui", nil)
	t.Cleanup(func() {
		worker.Close()
		ui.Close()
	})
	c := &collector{}
	e := New(context.Background(), worker, ui, c.add, WithDebounce(time.Millisecond))
	e.OnInit(loader.Snapshot{All: apps("Maps")})

	e.SetQuery("ma")
	dispatch.Settle(worker, ui)
	e.SetQuery("")
	dispatch.Settle(worker, ui)

	got := c.all()
	if len(got) != 2 {
		t.Fatalf("delivered %d result lists, want 2", len(got))
	}
	if len(got[1]) != 1 || got[1][0].Label != "Maps" {
		t.Errorf("empty query delivered %v", got[1])
	}
}

func TestEngine_CanceledScope(t *testing.T) {
	t.Parallel()

	worker := dispatch.NewQueue("search", nil)
	ui := dispatch.NewQueue("ui", nil)
	t.Cleanup(func() {
		worker.Close()
		ui.Close()
	})
	ctx, cancel := context.WithCancel(context.Background())
	c := &collector{}
	e := New(ctx, worker, ui, c.add, WithDebounce(time.Millisecond))

	cancel()
	e.SetQuery("x")
	dispatch.Settle(worker, ui)

	if n := len(c.all()); n != 0 {
		t.Errorf("delivered %d result lists after scope ended", n)
	}
}
