// Package cache owns the persisted copy of the application catalog and the
// per-entry label metadata.
//
// The cache lives in the persistent [storage.Store] (~/.appcat/ by default)
// as four independent records:
//
//   - catalog.entries: the identifiers of the last live query, zstd-compressed JSON.
//     Only identifiers are kept, never full entries.
//
//   - catalog.saved_at: save time in epoch milliseconds. The cache is fresh
//     while it is younger than the TTL (5 minutes by default).
//
//   - catalog.metadata: label records keyed by identifier, zstd-compressed JSON.
//     Records older than the metadata TTL are refreshed by [Manager.Preload]
//     but remain usable until then.
//
//   - catalog.version: the [catalog.Version] of the identifier set at save time.
//
// # Failure Semantics
//
// Every read degrades to "empty" or "unknown" instead of returning an error;
// the caller falls back to the next, more authoritative tier. A corrupted
// record is treated exactly like a missing one. Writes are logged and
// swallowed, so a failed save never blocks the pipeline that produced the data.
//
// # Concurrency
//
// [Manager.Save] is fire-and-forget on the manager's executor. The three
// catalog records are written under the store lock so saved_at and version
// always come from the same save; racing saves resolve to last writer wins.
//
// # Entry Lifecycle
//
// Individual entries are never deleted. Uninstalled identifiers are dropped
// when [Manager.Load] re-resolves them, and [Manager.Clear] removes all four
// records at once.
package cache
