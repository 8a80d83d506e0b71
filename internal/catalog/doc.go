// Package catalog defines the launchable entries appcat works with and the
// contract of the provider that is authoritative for them.
//
// # Entries
//
// An [Entry] is either a real application ([KindApp]) backed by the
// [Provider], or a synthetic result produced per query by the search engine
// (math results, contacts and the web/maps/video/store fallbacks).
// Identifiers are unique within one snapshot.
//
// # Versions
//
// A [Version] is a fingerprint over the set of identifiers the provider
// reports. It is order independent, so two enumerations of the same set
// always produce the same value:
//
//	v1 := catalog.ComputeVersion([]string{"b", "a"})
//	v2 := catalog.ComputeVersion([]string{"a", "b"})
//	// v1 == v2
//
// Equal versions are treated as equal content. This is the only mechanism
// used to skip a full re-query of the provider.
//
// # Ordering
//
// [SortKey] case-folds a label and pushes labels starting with a digit or '#'
// behind all alphabetic labels. [SortEntries] and the search engine share it.
package catalog
