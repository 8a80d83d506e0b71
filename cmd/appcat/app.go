package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/raphi011/appcat/internal/cache"
	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/config"
	"github.com/raphi011/appcat/internal/contacts"
	"github.com/raphi011/appcat/internal/desktop"
	"github.com/raphi011/appcat/internal/dispatch"
	"github.com/raphi011/appcat/internal/loader"
	"github.com/raphi011/appcat/internal/log"
	"github.com/raphi011/appcat/internal/policy"
	"github.com/raphi011/appcat/internal/search"
	"github.com/raphi011/appcat/internal/storage"
	"github.com/raphi011/appcat/internal/ui/progress"
	"github.com/raphi011/appcat/internal/ui/styles"
)

// app wires the catalog pipeline for one command invocation.
type app struct {
	cfg      *config.Config
	store    *storage.FileStore
	provider catalog.Provider
	rules    *policy.Rules
	workers  *dispatch.Pool
	ui       *dispatch.Queue
	cache    *cache.Manager
}

func newApp(ctx context.Context, cfg *config.Config) *app {
	panics := log.FromContext(ctx).Writer()
	workers := dispatch.NewPool(cfg.Cache.Workers, panics)
	provider := desktop.New(cfg.ApplicationDirs)
	store := storage.NewFileStore(cfg.DataDir)

	return &app{
		cfg:      cfg,
		store:    store,
		provider: provider,
		rules:    policy.New(cfg.Rules),
		workers:  workers,
		ui:       dispatch.NewQueue("ui", panics),
		cache: cache.New(store, provider,
			cache.WithTTL(cfg.Cache.TTL.Duration),
			cache.WithMetadataTTL(cfg.Cache.MetadataTTL.Duration),
			cache.WithExecutor(workers),
			cache.WithLabelWorkers(cfg.Cache.Workers),
		),
	}
}

// settle waits for all background work, including cache writes.
func (a *app) settle() {
	dispatch.Settle(a.workers, a.ui)
}

// Close waits for background work and stops the executors.
func (a *app) Close() {
	a.settle()
	a.ui.Close()
	a.workers.Close()
}

func (a *app) newLoader(ctx context.Context, opts ...loader.Option) *loader.Loader {
	c := a.cfg.Cache
	base := []loader.Option{
		loader.WithMemoryTTL(c.MemoryTTL.Duration),
		loader.WithLiveTimeout(c.LiveTimeout.Duration),
		loader.WithRefineDelay(c.RefineDelay.Duration),
		loader.WithRetryDelay(c.RetryDelay.Duration),
	}
	return loader.New(ctx, a.cache, a.provider, a.ui, a.workers, append(base, opts...)...)
}

func (a *app) newEngine(ctx context.Context, worker dispatch.DelayedExecutor, onResults func([]catalog.Entry)) *search.Engine {
	names, err := contacts.Load(a.cfg.ContactsFile)
	if err != nil {
		log.FromContext(ctx).Printf("Warning: contacts: %v\n", err)
	}
	s := a.cfg.Search
	return search.New(ctx, worker, a.ui, onResults,
		search.WithDebounce(s.Debounce.Duration),
		search.WithContactLimit(s.ContactLimit),
		search.WithHidden(a.rules.Hidden),
		search.WithContacts(names),
	)
}

type loadOptions struct {
	force  bool
	mode   catalog.Mode
	policy loader.Policy
}

// collector is the View and Subscriber of a one-shot load.
type collector struct {
	mu      sync.Mutex
	last    loader.Snapshot
	got     bool
	empty   bool
	err     error
	spinner *progress.Spinner
}

func (c *collector) OnInit(s loader.Snapshot) { c.OnSnapshot(s) }

func (c *collector) OnSnapshot(s loader.Snapshot) {
	c.mu.Lock()
	c.last, c.got, c.empty, c.err = s, true, false, nil
	c.mu.Unlock()
	c.spinner.SetLabel(fmt.Sprintf("Loading applications (%s)...", s.Stage))
}

func (c *collector) VisibleLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last.Entries)
}

func (c *collector) ShowNoEntries() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.empty = true
}

func (c *collector) ShowError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// loadCatalog runs the loader until every stage has been published and
// returns the final snapshot.
func (a *app) loadCatalog(ctx context.Context, opts loadOptions) (loader.Snapshot, error) {
	var sp *progress.Spinner
	if !quiet && styles.IsTerminal(os.Stderr) {
		sp = progress.NewSpinner(os.Stderr, "Loading applications...")
	}
	c := &collector{spinner: sp}

	lopts := []loader.Option{loader.WithView(c), loader.WithMode(opts.mode)}
	if opts.policy != nil {
		lopts = append(lopts, loader.WithPolicy(opts.policy))
	}
	l := a.newLoader(ctx, lopts...)
	l.Subscribe(c)

	sp.Start()
	l.Load(opts.force)
	a.settle()
	sp.Stop()

	if err := ctx.Err(); err != nil {
		return loader.Snapshot{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil && !c.got {
		return loader.Snapshot{}, fmt.Errorf("load catalog: %w", c.err)
	}
	if c.err != nil {
		log.FromContext(ctx).Printf("Warning: showing cached results: %v\n", c.err)
	}
	if c.empty && !c.got {
		return loader.Snapshot{}, nil
	}
	return c.last, nil
}
