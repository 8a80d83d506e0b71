package catalog

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// trailingSentinel sorts after any valid UTF-8 text.
const trailingSentinel = "\U0010FFFF"

// Fold case-folds s for comparison.
func Fold(s string) string {
	// cases.Caser is stateful, so one per call
	return cases.Fold().String(s)
}

// SortKey returns the comparison key for a label: the case-folded label,
// prefixed with a sentinel when it starts with a digit or '#', so numeric
// and symbolic names cluster after the alphabetic ones.
func SortKey(label string) string {
	folded := Fold(strings.TrimSpace(label))
	r, _ := utf8.DecodeRuneInString(folded)
	if r == '#' || unicode.IsDigit(r) {
		return trailingSentinel + folded
	}
	return folded
}

// SortEntries stably sorts entries in place by the sort key of their
// display label.
func SortEntries(entries []Entry) {
	keys := make(map[string]string, len(entries))
	for _, e := range entries {
		keys[e.ID] = SortKey(e.DisplayLabel())
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return strings.Compare(keys[a.ID], keys[b.ID])
	})
}

// SameOrder reports whether a and b list the same identifiers in the same order.
func SameOrder(a, b []Entry) bool {
	return slices.EqualFunc(a, b, func(x, y Entry) bool { return x.ID == y.ID })
}
