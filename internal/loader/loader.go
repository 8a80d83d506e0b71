// Package loader runs the staged catalog pipeline: persisted cache, then the
// in-process snapshot, then a live provider query with a fast and a refined
// sort. Each stage publishes an immutable [Snapshot] to subscribers on the UI
// executor.
package loader

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/dispatch"
	"github.com/raphi011/appcat/internal/log"
)

const (
	DefaultMemoryTTL   = 5 * time.Minute
	DefaultLiveTimeout = 10 * time.Second
	DefaultRefineDelay = 50 * time.Millisecond
	DefaultRetryDelay  = 2 * time.Second
)

// ErrTimeout is reported when the live query did not finish within the live timeout.
var ErrTimeout = errors.New("catalog query timed out")

// Stage identifies which step of the pipeline produced a snapshot.
type Stage int

const (
	StageStaleCache Stage = iota + 1
	StageMemory
	StageLiveFast
	StageLiveRefined
)

func (s Stage) String() string {
	switch s {
	case StageStaleCache:
		return "stale-cache"
	case StageMemory:
		return "memory"
	case StageLiveFast:
		return "live-fast"
	case StageLiveRefined:
		return "live-refined"
	}
	return "unknown"
}

// Snapshot is one published catalog state. Entries is filtered and sorted
// for display; All is the unfiltered catalog with labels applied.
type Snapshot struct {
	Stage   Stage
	Entries []catalog.Entry
	All     []catalog.Entry
}

// Subscriber receives published snapshots on the UI executor. OnInit is
// called for the first snapshot a subscriber sees, OnSnapshot for every later one.
type Subscriber interface {
	OnInit(Snapshot)
	OnSnapshot(Snapshot)
}

// View is the visible list the loader avoids clobbering. Its methods are
// called on the UI executor.
type View interface {
	VisibleLen() int
	ShowNoEntries()
	ShowError(err error)
}

// Policy applies the caller's business rules. Implementations must not
// modify the input slice.
type Policy interface {
	Filter(entries []catalog.Entry, mode catalog.Mode) []catalog.Entry
	ApplyFavorites(entries []catalog.Entry, mode catalog.Mode) []catalog.Entry
}

// Cache is the persisted tier, implemented by *cache.Manager.
type Cache interface {
	IsFresh(ctx context.Context) bool
	Load(ctx context.Context) []catalog.Entry
	Save(ctx context.Context, entries []catalog.Entry)
	CurrentVersion(ctx context.Context) catalog.Version
	PersistedVersion(ctx context.Context) catalog.Version
	Invalidate(ctx context.Context)
	Clear(ctx context.Context)
	Metadata(ctx context.Context) map[string]catalog.MetadataRecord
	Preload(ctx context.Context, entries []catalog.Entry)
	ResolveMissing(ctx context.Context, entries []catalog.Entry) map[string]catalog.MetadataRecord
}

type subscription struct {
	sub         Subscriber
	initialized bool
}

// memory is the in-process tier. It is replaced, never mutated.
type memory struct {
	entries []catalog.Entry
	at      time.Time
}

// Loader orchestrates the catalog pipeline.
type Loader struct {
	ctx      context.Context
	cache    Cache
	provider catalog.Provider
	ui       dispatch.DelayedExecutor
	workers  dispatch.DelayedExecutor
	policy   Policy
	view     View

	memoryTTL   time.Duration
	liveTimeout time.Duration
	refineDelay time.Duration
	retryDelay  time.Duration
	now         func() time.Time

	mu    sync.Mutex
	subs  []*subscription
	mode  catalog.Mode
	mem   *memory
	epoch uint64

	// UI executor only
	lastLen int
}

// Option configures a Loader.
type Option func(*Loader)

// WithPolicy sets the filter and favorites rules.
func WithPolicy(p Policy) Option {
	return func(l *Loader) { l.policy = p }
}

// WithView sets the visible list consulted before showing empty or error states.
func WithView(v View) Option {
	return func(l *Loader) { l.view = v }
}

func WithMode(m catalog.Mode) Option {
	return func(l *Loader) { l.mode = m }
}

// WithMemoryTTL sets how long the in-process snapshot is reused.
func WithMemoryTTL(d time.Duration) Option {
	return func(l *Loader) { l.memoryTTL = d }
}

func WithLiveTimeout(d time.Duration) Option {
	return func(l *Loader) { l.liveTimeout = d }
}

// WithRefineDelay sets the pause between the fast and the refined publish.
func WithRefineDelay(d time.Duration) Option {
	return func(l *Loader) { l.refineDelay = d }
}

func WithRetryDelay(d time.Duration) Option {
	return func(l *Loader) { l.retryDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// New creates a loader. ctx is the owning UI scope: once it is done nothing
// more is published. ui must run funcs one at a time.
func New(ctx context.Context, c Cache, p catalog.Provider, ui, workers dispatch.DelayedExecutor, opts ...Option) *Loader {
	l := &Loader{
		ctx:         ctx,
		cache:       c,
		provider:    p,
		ui:          ui,
		workers:     workers,
		memoryTTL:   DefaultMemoryTTL,
		liveTimeout: DefaultLiveTimeout,
		refineDelay: DefaultRefineDelay,
		retryDelay:  DefaultRetryDelay,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Subscribe adds s to the subscribers of future publishes.
func (l *Loader) Subscribe(s Subscriber) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, &subscription{sub: s})
}

// SetMode changes the business-rule flags used by the next publish.
func (l *Loader) SetMode(m catalog.Mode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mode = m
}

// Load starts one pipeline pass and returns immediately. A forced load drops
// both cache tiers and supersedes every pass still in flight.
func (l *Loader) Load(force bool) {
	l.start(force, false)
}

func (l *Loader) start(force, retry bool) {
	l.mu.Lock()
	if force {
		l.epoch++
		l.mem = nil
	}
	epoch := l.epoch
	l.mu.Unlock()

	if !l.workers.Post(func() { l.run(epoch, force, retry) }) {
		log.FromContext(l.ctx).Debug("loader: pass dropped, executor closed")
	}
}

func (l *Loader) current(epoch uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return epoch == l.epoch && l.ctx.Err() == nil
}

func (l *Loader) run(epoch uint64, force, retry bool) {
	if !l.current(epoch) {
		return
	}
	logger := log.FromContext(l.ctx)

	if force {
		l.cache.Clear(l.ctx)
	} else if l.cache.IsFresh(l.ctx) {
		if all := l.cache.Load(l.ctx); len(all) > 0 {
			logger.Debug("loader: publishing persisted cache", "entries", len(all))
			l.publish(epoch, StageStaleCache, l.label(all, l.cache.Metadata(l.ctx)))
			if !l.workers.Post(func() { l.checkVersion(epoch) }) {
				logger.Debug("loader: version check dropped, executor closed")
			}
			return
		}
	}

	if !force {
		if mem := l.memory(false); mem != nil {
			l.publish(epoch, StageMemory, l.label(mem.entries, l.cache.Metadata(l.ctx)))
		}
	}

	l.live(epoch, force, retry)
}

// checkVersion re-runs the pipeline when the provider's identifier set has
// drifted from the persisted one. An unknown version on either side is not drift.
func (l *Loader) checkVersion(epoch uint64) {
	if !l.current(epoch) {
		return
	}
	persisted := l.cache.PersistedVersion(l.ctx)
	current := l.cache.CurrentVersion(l.ctx)
	if persisted == "" || current == "" || persisted == current {
		return
	}

	log.FromContext(l.ctx).Debug("loader: catalog version drifted", "persisted", persisted, "current", current)
	// Without a save time and a memory snapshot the next pass queries the provider
	l.cache.Invalidate(l.ctx)
	l.mu.Lock()
	l.mem = nil
	l.mu.Unlock()
	l.start(false, false)
}

func (l *Loader) live(epoch uint64, force, retry bool) {
	logger := log.FromContext(l.ctx)

	var all []catalog.Entry
	if mem := l.memory(false); mem != nil && !force {
		all = mem.entries
	} else {
		start := l.now()
		var err error
		all, err = l.query()
		if errors.Is(err, ErrTimeout) {
			if mem := l.memory(true); mem != nil {
				logger.Debug("loader: live query timed out, using memory snapshot")
				l.publish(epoch, StageMemory, l.label(mem.entries, l.cache.Metadata(l.ctx)))
				return
			}
		}
		if err != nil {
			l.fail(epoch, err, retry)
			return
		}
		logger.Debug("loader: live query done", "entries", len(all), "took", l.now().Sub(start))

		l.mu.Lock()
		l.mem = &memory{entries: all, at: l.now()}
		l.mu.Unlock()
		l.cache.Save(l.ctx, all)
	}

	if len(all) == 0 {
		l.ui.Post(func() {
			if l.current(epoch) && l.visibleLen() == 0 {
				l.showNoEntries()
			}
		})
		return
	}

	fast := l.publish(epoch, StageLiveFast, l.label(all, l.cache.Metadata(l.ctx)))
	l.workers.PostDelayed(l.refineDelay, func() { l.refine(epoch, all, fast) })
}

// refine resolves every missing label and republishes when the result
// differs from the fast publish.
func (l *Loader) refine(epoch uint64, all, fast []catalog.Entry) {
	if !l.current(epoch) {
		return
	}
	meta := l.cache.ResolveMissing(l.ctx, all)
	labeled := l.label(all, meta)
	if refined := l.arrange(labeled); !sameListing(refined, fast) {
		l.deliverAsync(epoch, Snapshot{Stage: StageLiveRefined, Entries: refined, All: labeled})
	}
	l.cache.Preload(l.ctx, all)
}

// query asks the provider for the current catalog within the live timeout.
func (l *Loader) query() ([]catalog.Entry, error) {
	ctx, cancel := context.WithTimeout(l.ctx, l.liveTimeout)
	defer cancel()

	type result struct {
		entries []catalog.Entry
		err     error
	}
	done := make(chan result, 1)
	go func() {
		entries, err := resolveAll(ctx, l.provider)
		done <- result{entries, err}
	}()

	select {
	case r := <-done:
		return r.entries, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

func resolveAll(ctx context.Context, p catalog.Provider) ([]catalog.Entry, error) {
	ids, err := p.ListIdentifiers(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]catalog.Entry, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target, err := p.ResolveLaunchTarget(ctx, id)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// One unreadable entry must not hide the rest
			log.FromContext(ctx).Debug("loader: entry skipped", "id", id, "err", err)
			continue
		}
		entries = append(entries, catalog.Entry{ID: id, Kind: catalog.KindApp, Payload: target})
	}
	return entries, nil
}

// fail handles a failed live query: one delayed forced retry while nothing is
// visible, otherwise an error shown only over an empty list.
func (l *Loader) fail(epoch uint64, err error, retry bool) {
	log.FromContext(l.ctx).Debug("loader: live query failed", "err", err, "retry", retry)

	l.ui.Post(func() {
		if !l.current(epoch) || l.visibleLen() > 0 {
			return
		}
		if !retry {
			l.workers.PostDelayed(l.retryDelay, func() { l.start(true, true) })
			return
		}
		l.showError(err)
	})
}

func (l *Loader) memory(allowExpired bool) *memory {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mem == nil {
		return nil
	}
	if !allowExpired && l.now().Sub(l.mem.at) >= l.memoryTTL {
		return nil
	}
	return l.mem
}

// label returns a copy of entries with labels from meta applied.
func (l *Loader) label(entries []catalog.Entry, meta map[string]catalog.MetadataRecord) []catalog.Entry {
	out := slices.Clone(entries)
	for i := range out {
		if r, ok := meta[out[i].ID]; ok && r.Label != "" {
			out[i].Label = r.Label
		}
	}
	return out
}

// arrange filters, sorts and pins favorites.
func (l *Loader) arrange(all []catalog.Entry) []catalog.Entry {
	l.mu.Lock()
	mode := l.mode
	l.mu.Unlock()

	entries := all
	if l.policy != nil {
		entries = l.policy.Filter(entries, mode)
	}
	entries = slices.Clone(entries)
	catalog.SortEntries(entries)
	if l.policy != nil {
		entries = l.policy.ApplyFavorites(entries, mode)
	}
	return entries
}

func (l *Loader) publish(epoch uint64, stage Stage, all []catalog.Entry) []catalog.Entry {
	entries := l.arrange(all)
	l.deliverAsync(epoch, Snapshot{Stage: stage, Entries: entries, All: all})
	return entries
}

func (l *Loader) deliverAsync(epoch uint64, snap Snapshot) {
	if !l.ui.Post(func() { l.deliver(epoch, snap) }) {
		log.FromContext(l.ctx).Debug("loader: publish dropped, executor closed", "stage", snap.Stage)
	}
}

func (l *Loader) deliver(epoch uint64, snap Snapshot) {
	if !l.current(epoch) {
		return
	}
	l.lastLen = len(snap.Entries)

	l.mu.Lock()
	subs := slices.Clone(l.subs)
	l.mu.Unlock()

	for _, s := range subs {
		if s.initialized {
			s.sub.OnSnapshot(snap)
			continue
		}
		s.initialized = true
		s.sub.OnInit(snap)
	}
}

func (l *Loader) visibleLen() int {
	if l.view != nil {
		return l.view.VisibleLen()
	}
	return l.lastLen
}

func (l *Loader) showNoEntries() {
	if l.view != nil {
		l.view.ShowNoEntries()
		return
	}
	log.FromContext(l.ctx).Printf("No applications found\n")
}

func (l *Loader) showError(err error) {
	if l.view != nil {
		l.view.ShowError(err)
		return
	}
	log.FromContext(l.ctx).Printf("Could not load applications: %v\n", err)
}

// sameListing reports whether a and b show the same entries in the same order
// under the same labels.
func sameListing(a, b []catalog.Entry) bool {
	return slices.EqualFunc(a, b, func(x, y catalog.Entry) bool {
		return x.ID == y.ID && x.Label == y.Label
	})
}
