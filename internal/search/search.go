// Package search ranks the catalog against the text typed into the launcher.
//
// Queries arrive through [Engine.SetQuery], are debounced, and run one at a
// time on a dedicated worker. Every completed query delivers its full result
// list to the UI executor, replacing the previous one.
//
// Ranking for a non-empty query:
//
//  1. An arithmetic expression short-circuits to a single math result.
//  2. Catalog entries whose label equals the query.
//  3. Entries whose label starts with or contains the query.
//  4. Entries whose label contains the query's characters in order (fuzzy).
//  5. Up to the contact limit of matching contacts.
//  6. The fixed fallbacks: store, maps, video and web search.
//
// Buckets 2 and 3 are ordered by [catalog.SortKey], bucket 4 by match score.
package search

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/raphi011/appcat/internal/calc"
	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/dispatch"
	"github.com/raphi011/appcat/internal/loader"
	"github.com/raphi011/appcat/internal/log"
)

const (
	DefaultDebounce     = 10 * time.Millisecond
	DefaultContactLimit = 5

	// minFuzzyLen keeps single keystrokes from matching nearly everything.
	minFuzzyLen = 2
)

// Fallbacks lists the fallback kinds in the order they are appended.
var Fallbacks = []catalog.Kind{
	catalog.KindStoreSearch,
	catalog.KindMapsSearch,
	catalog.KindVideoSearch,
	catalog.KindWebSearch,
}

// Engine is an incremental search over the current catalog snapshot.
type Engine struct {
	ctx          context.Context
	worker       dispatch.DelayedExecutor
	ui           dispatch.Executor
	onResults    func([]catalog.Entry)
	eval         *calc.Evaluator
	debounce     time.Duration
	contactLimit int

	mu       sync.Mutex
	all      []catalog.Entry
	contacts []string
	hidden   func(id string) bool
	empty    []catalog.Entry // memoized empty-query result, nil when invalid
	gen      uint64          // bumped whenever an input of the memo changes
	pending  *dispatch.Timer

	synth *synthetics
	runs  atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce sets how long input must pause before a query runs.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

func WithContactLimit(n int) Option {
	return func(e *Engine) { e.contactLimit = n }
}

// WithHidden sets the predicate for entries excluded from results.
func WithHidden(hidden func(id string) bool) Option {
	return func(e *Engine) { e.hidden = hidden }
}

func WithContacts(names []string) Option {
	return func(e *Engine) { e.contacts = slices.Clone(names) }
}

func WithEvaluator(ev *calc.Evaluator) Option {
	return func(e *Engine) { e.eval = ev }
}

// New creates an engine. Queries run on worker, which must run funcs one at
// a time; onResults is called on ui. Nothing is delivered once ctx is done.
func New(ctx context.Context, worker dispatch.DelayedExecutor, ui dispatch.Executor, onResults func([]catalog.Entry), opts ...Option) *Engine {
	e := &Engine{
		ctx:          ctx,
		worker:       worker,
		ui:           ui,
		onResults:    onResults,
		debounce:     DefaultDebounce,
		contactLimit: DefaultContactLimit,
		synth:        newSynthetics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.eval == nil {
		e.eval = calc.New()
	}
	return e
}

// OnInit implements loader.Subscriber.
func (e *Engine) OnInit(s loader.Snapshot) { e.SetCatalog(s.All) }

// OnSnapshot implements loader.Subscriber.
func (e *Engine) OnSnapshot(s loader.Snapshot) { e.SetCatalog(s.All) }

// SetCatalog replaces the unfiltered working set.
func (e *Engine) SetCatalog(all []catalog.Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = all
	e.empty = nil
	e.gen++
}

// SetContacts replaces the contact names searched after the catalog.
func (e *Engine) SetContacts(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contacts = slices.Clone(names)
	e.empty = nil
	e.gen++
}

// SetHidden replaces the hide predicate.
func (e *Engine) SetHidden(hidden func(id string) bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hidden = hidden
	e.empty = nil
	e.gen++
}

// SetQuery schedules a search for query after the debounce delay,
// superseding any search still waiting for its delay to pass.
func (e *Engine) SetQuery(query string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		e.pending.Stop()
	}
	e.pending = e.worker.PostDelayed(e.debounce, func() { e.run(query) })
}

func (e *Engine) run(query string) {
	if e.ctx.Err() != nil {
		return
	}
	e.runs.Add(1)
	results := e.Search(query)
	log.FromContext(e.ctx).Debug("search: done", "query", query, "results", len(results))

	if !e.ui.Post(func() {
		if e.ctx.Err() == nil {
			e.onResults(results)
		}
	}) {
		log.FromContext(e.ctx).Debug("search: results dropped, executor closed")
	}
}

// Search ranks the current catalog against query and returns the result list.
// A non-empty query never yields fewer results than there are fallbacks.
func (e *Engine) Search(query string) []catalog.Entry {
	query = strings.TrimSpace(query)

	e.mu.Lock()
	all, contacts, hidden, gen := e.all, e.contacts, e.hidden, e.gen
	if query == "" && e.empty != nil {
		memo := e.empty
		e.mu.Unlock()
		return slices.Clone(memo)
	}
	e.mu.Unlock()

	if query == "" {
		results := visible(all, hidden)
		catalog.SortEntries(results)
		e.mu.Lock()
		if e.gen == gen {
			e.empty = results
		}
		e.mu.Unlock()
		return slices.Clone(results)
	}

	if value, ok := e.eval.Eval(query); ok {
		return []catalog.Entry{e.synth.get(catalog.KindMath, query, value)}
	}

	folded := catalog.Fold(query)
	results := rank(folded, all, hidden)

	matched := 0
	for _, name := range contacts {
		if matched >= e.contactLimit {
			break
		}
		if strings.Contains(catalog.Fold(name), folded) {
			results = append(results, e.synth.get(catalog.KindContact, name, name))
			matched++
		}
	}

	for _, kind := range Fallbacks {
		results = append(results, e.synth.get(kind, query, query))
	}
	return results
}

// rank scans all once and returns the exact, prefix+substring and fuzzy
// buckets concatenated.
func rank(query string, all []catalog.Entry, hidden func(string) bool) []catalog.Entry {
	var exact, prefix, substring, rest []catalog.Entry
	var restLabels []string

	for _, entry := range all {
		if hidden != nil && hidden(entry.ID) {
			continue
		}
		label := catalog.Fold(entry.DisplayLabel())
		switch {
		case label == query:
			exact = append(exact, entry)
		case strings.HasPrefix(label, query):
			prefix = append(prefix, entry)
		case strings.Contains(label, query):
			substring = append(substring, entry)
		default:
			rest = append(rest, entry)
			restLabels = append(restLabels, label)
		}
	}

	// Latest prefix match first, so ties keep the newest prefix hit on top
	slices.Reverse(prefix)
	partial := append(prefix, substring...)

	catalog.SortEntries(exact)
	catalog.SortEntries(partial)

	results := append(exact, partial...)
	if utf8.RuneCountInString(query) < minFuzzyLen {
		return results
	}
	for _, m := range fuzzy.FindFrom(query, labelSource(restLabels)) {
		results = append(results, rest[m.Index])
	}
	return results
}

type labelSource []string

func (s labelSource) String(i int) string { return s[i] }
func (s labelSource) Len() int            { return len(s) }

func visible(all []catalog.Entry, hidden func(string) bool) []catalog.Entry {
	out := make([]catalog.Entry, 0, len(all))
	for _, entry := range all {
		if hidden == nil || !hidden(entry.ID) {
			out = append(out, entry)
		}
	}
	return out
}
