package cache

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/dispatch"
	"github.com/raphi011/appcat/internal/log"
	"github.com/raphi011/appcat/internal/storage"
)

const (
	// DefaultTTL is how long a persisted catalog counts as fresh.
	DefaultTTL = 5 * time.Minute

	// DefaultMetadataTTL is how long a resolved label counts as current.
	DefaultMetadataTTL = 7 * 24 * time.Hour

	// DefaultLabelWorkers bounds concurrent label resolution calls.
	DefaultLabelWorkers = 8
)

// Keys of the persisted records.
const (
	KeyEntries  = "catalog.entries"
	KeySavedAt  = "catalog.saved_at"
	KeyMetadata = "catalog.metadata"
	KeyVersion  = "catalog.version"
)

// Manager owns the persisted catalog and label metadata.
type Manager struct {
	store        storage.Store
	provider     catalog.Provider
	exec         dispatch.Executor
	ttl          time.Duration
	metadataTTL  time.Duration
	labelWorkers int
	now          func() time.Time

	mu         sync.Mutex
	meta       map[string]catalog.MetadataRecord
	metaLoaded bool
	gen        uint64 // advanced by Clear; writes queued under an older gen are dropped
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the freshness window of the persisted catalog.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

// WithMetadataTTL sets the freshness window of label records.
func WithMetadataTTL(d time.Duration) Option {
	return func(m *Manager) { m.metadataTTL = d }
}

// WithExecutor sets where asynchronous saves run.
func WithExecutor(e dispatch.Executor) Option {
	return func(m *Manager) { m.exec = e }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLabelWorkers bounds concurrent ResolveLabel calls.
func WithLabelWorkers(n int) Option {
	return func(m *Manager) { m.labelWorkers = n }
}

// New creates a manager over store, validating against provider.
func New(store storage.Store, provider catalog.Provider, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		provider:     provider,
		ttl:          DefaultTTL,
		metadataTTL:  DefaultMetadataTTL,
		labelWorkers: DefaultLabelWorkers,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.exec == nil {
		m.exec = dispatch.NewPool(1, nil)
	}
	return m
}

// Wait blocks until asynchronous saves have finished, if the executor can tell.
func (m *Manager) Wait() {
	if w, ok := m.exec.(dispatch.Waiter); ok {
		w.Wait()
	}
}

// CurrentVersion fingerprints the provider's current identifier set.
// Returns the zero Version if the provider fails.
func (m *Manager) CurrentVersion(ctx context.Context) catalog.Version {
	ids, err := m.provider.ListIdentifiers(ctx)
	if err != nil {
		log.FromContext(ctx).Debug("cache: version query failed", "err", err)
		return ""
	}
	return catalog.ComputeVersion(ids)
}

// PersistedVersion returns the version stored with the last save, or the zero Version.
func (m *Manager) PersistedVersion(ctx context.Context) catalog.Version {
	v, err := m.store.ReadString(KeyVersion)
	if err != nil {
		return ""
	}
	return catalog.Version(v)
}

// SavedAt returns the time of the last save, or the zero time.
func (m *Manager) SavedAt(ctx context.Context) time.Time {
	raw, err := m.store.ReadString(KeySavedAt)
	if err != nil {
		return time.Time{}
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.FromContext(ctx).Debug("cache: corrupt saved_at", "value", raw)
		return time.Time{}
	}
	return time.UnixMilli(millis)
}

// IsFresh reports whether a persisted catalog exists and is younger than the TTL.
func (m *Manager) IsFresh(ctx context.Context) bool {
	savedAt := m.SavedAt(ctx)
	if savedAt.IsZero() {
		return false
	}
	age := m.now().Sub(savedAt)
	return age >= 0 && age < m.ttl
}

// IsVersionCurrent reports whether the persisted version equals the provider's
// current one. Unknown on either side counts as not current.
// It queries the provider, so keep it off the hot path.
func (m *Manager) IsVersionCurrent(ctx context.Context) bool {
	persisted := m.PersistedVersion(ctx)
	if persisted == "" {
		return false
	}
	current := m.CurrentVersion(ctx)
	return current != "" && current == persisted
}

// Load returns the persisted catalog, re-resolving each identifier against the
// provider and silently dropping those that no longer resolve. Any failure
// yields an empty result.
func (m *Manager) Load(ctx context.Context) []catalog.Entry {
	l := log.FromContext(ctx)

	data, err := m.store.ReadBytes(KeyEntries)
	if err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			l.Debug("cache: read entries failed", "err", err)
		}
		return nil
	}

	var ids []string
	if err := decodeBlob(data, &ids); err != nil {
		// Corrupted - same as absent
		l.Debug("cache: corrupt entries", "err", err)
		return nil
	}

	meta := m.Metadata(ctx)
	entries := make([]catalog.Entry, 0, len(ids))
	for _, id := range ids {
		target, err := m.provider.ResolveLaunchTarget(ctx, id)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			l.Debug("cache: provider failed during load", "id", id, "err", err)
			return nil
		}
		entries = append(entries, catalog.Entry{
			ID:      id,
			Kind:    catalog.KindApp,
			Label:   meta[id].Label,
			Payload: target,
		})
	}
	return entries
}

// Save persists the identifiers of entries asynchronously and advances the
// version. The entries must be the full, unfiltered catalog.
func (m *Manager) Save(ctx context.Context, entries []catalog.Entry) {
	ids := catalog.IDs(entries)
	savedAt := m.now()
	gen := m.generation()
	if !m.exec.Post(func() { m.save(ctx, gen, ids, savedAt) }) {
		log.FromContext(ctx).Debug("cache: save dropped, executor closed")
	}
}

func (m *Manager) generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// errCleared aborts a write queued before the last Clear.
var errCleared = errors.New("cleared since queued")

func (m *Manager) save(ctx context.Context, gen uint64, ids []string, savedAt time.Time) {
	blob, err := encodeBlob(ids)
	if err != nil {
		log.FromContext(ctx).Debug("cache: encode entries failed", "err", err)
		return
	}
	version := catalog.ComputeVersion(ids)

	err = storage.WithLock(m.store, func() error {
		if m.generation() != gen {
			return errCleared
		}
		if err := m.store.WriteBytes(KeyEntries, blob); err != nil {
			return err
		}
		if err := m.store.WriteString(KeyVersion, string(version)); err != nil {
			return err
		}
		return m.store.WriteString(KeySavedAt, strconv.FormatInt(savedAt.UnixMilli(), 10))
	})
	if errors.Is(err, errCleared) {
		log.FromContext(ctx).Debug("cache: save dropped", "reason", err)
		return
	}
	if err != nil {
		log.FromContext(ctx).Debug("cache: save failed", "err", err)
		return
	}
	log.FromContext(ctx).Debug("cache: saved", "entries", len(ids), "version", version)
}

// Invalidate marks the persisted catalog stale without deleting it.
func (m *Manager) Invalidate(ctx context.Context) {
	if err := m.store.Delete(KeySavedAt); err != nil {
		log.FromContext(ctx).Debug("cache: invalidate failed", "err", err)
	}
}

// Clear deletes all persisted records and resets in-memory metadata.
// Calling it again is a no-op.
func (m *Manager) Clear(ctx context.Context) {
	err := storage.WithLock(m.store, func() error {
		m.mu.Lock()
		m.gen++
		m.meta = make(map[string]catalog.MetadataRecord)
		m.metaLoaded = true
		m.mu.Unlock()
		return errors.Join(
			m.store.Delete(KeyEntries),
			m.store.Delete(KeySavedAt),
			m.store.Delete(KeyMetadata),
			m.store.Delete(KeyVersion),
		)
	})
	if err != nil {
		log.FromContext(ctx).Debug("cache: clear failed", "err", err)
	}
}

// Metadata returns a copy of the label records, hydrating them from the store
// on first access.
func (m *Manager) Metadata(ctx context.Context) map[string]catalog.MetadataRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hydrateLocked(ctx)
	return maps.Clone(m.meta)
}

func (m *Manager) hydrateLocked(ctx context.Context) {
	if m.metaLoaded {
		return
	}
	m.metaLoaded = true
	m.meta = make(map[string]catalog.MetadataRecord)

	data, err := m.store.ReadBytes(KeyMetadata)
	if err != nil {
		return
	}
	var records map[string]catalog.MetadataRecord
	if err := decodeBlob(data, &records); err != nil {
		log.FromContext(ctx).Debug("cache: corrupt metadata", "err", err)
		return
	}
	for id, r := range records {
		m.meta[id] = r
	}
}

// UpdateMetadata stores record for id and persists the metadata asynchronously.
func (m *Manager) UpdateMetadata(ctx context.Context, id string, record catalog.MetadataRecord) {
	m.mu.Lock()
	m.hydrateLocked(ctx)
	m.meta[id] = record
	gen := m.gen
	m.mu.Unlock()

	if !m.exec.Post(func() { m.persistMetadata(ctx, gen) }) {
		log.FromContext(ctx).Debug("cache: metadata save dropped, executor closed")
	}
}

// Preload refreshes the label of every entry whose record is missing or
// older than the metadata TTL, then persists the metadata. It calls the
// provider and must run off the UI goroutine.
func (m *Manager) Preload(ctx context.Context, entries []catalog.Entry) {
	now := m.now()
	m.refresh(ctx, entries, func(r catalog.MetadataRecord, ok bool) bool {
		return !ok || r.IsStale(m.metadataTTL, now)
	})
}

// ResolveMissing resolves labels only for entries without any record and
// returns the updated metadata. Stale records are left for Preload.
func (m *Manager) ResolveMissing(ctx context.Context, entries []catalog.Entry) map[string]catalog.MetadataRecord {
	m.refresh(ctx, entries, func(_ catalog.MetadataRecord, ok bool) bool {
		return !ok
	})
	return m.Metadata(ctx)
}

func (m *Manager) refresh(ctx context.Context, entries []catalog.Entry, needs func(catalog.MetadataRecord, bool) bool) {
	m.mu.Lock()
	m.hydrateLocked(ctx)
	gen := m.gen
	var ids []string
	for _, e := range entries {
		if e.Kind != catalog.KindApp {
			continue
		}
		r, ok := m.meta[e.ID]
		if needs(r, ok) {
			ids = append(ids, e.ID)
		}
	}
	m.mu.Unlock()

	if len(ids) == 0 {
		return
	}

	records := m.resolveLabels(ctx, ids)

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		log.FromContext(ctx).Debug("cache: labels dropped, cleared while resolving")
		return
	}
	for id, r := range records {
		m.meta[id] = r
	}
	m.mu.Unlock()

	m.persistMetadata(ctx, gen)
}

// resolveLabels calls the provider for each id with bounded concurrency.
// Failed ids are left out; their previous record, if any, stays in use.
func (m *Manager) resolveLabels(ctx context.Context, ids []string) map[string]catalog.MetadataRecord {
	l := log.FromContext(ctx)

	var mu sync.Mutex
	records := make(map[string]catalog.MetadataRecord, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, m.labelWorkers))
	for _, id := range ids {
		g.Go(func() error {
			label, err := m.provider.ResolveLabel(gctx, id)
			if err != nil {
				if !errors.Is(err, catalog.ErrNotFound) {
					l.Debug("cache: label resolution failed", "id", id, "err", err)
				}
				return nil
			}
			mu.Lock()
			records[id] = catalog.NewMetadataRecord(id, label, m.now())
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return records
}

func (m *Manager) persistMetadata(ctx context.Context, gen uint64) {
	err := storage.WithLock(m.store, func() error {
		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			return errCleared
		}
		snapshot := maps.Clone(m.meta)
		m.mu.Unlock()

		blob, err := encodeBlob(snapshot)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		return m.store.WriteBytes(KeyMetadata, blob)
	})
	if errors.Is(err, errCleared) {
		log.FromContext(ctx).Debug("cache: metadata save dropped", "reason", err)
		return
	}
	if err != nil {
		log.FromContext(ctx).Debug("cache: metadata save failed", "err", err)
	}
}

// Status summarizes the persisted cache.
type Status struct {
	SavedAt  time.Time       `json:"saved_at"`
	Fresh    bool            `json:"fresh"`
	Version  catalog.Version `json:"version"`
	Entries  int             `json:"entries"`
	Metadata int             `json:"metadata"`
}

// Status reads the persisted records without consulting the provider.
func (m *Manager) Status(ctx context.Context) Status {
	s := Status{
		SavedAt:  m.SavedAt(ctx),
		Fresh:    m.IsFresh(ctx),
		Version:  m.PersistedVersion(ctx),
		Metadata: len(m.Metadata(ctx)),
	}
	if data, err := m.store.ReadBytes(KeyEntries); err == nil {
		var ids []string
		if decodeBlob(data, &ids) == nil {
			s.Entries = len(ids)
		}
	}
	return s
}
