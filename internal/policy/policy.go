// Package policy applies the configured business rules to the catalog:
// hidden entries, favorites, focus mode and workspaces. Rules are doublestar
// patterns matched against entry ids.
package policy

import (
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/config"
)

// Rules is the compiled form of config.RulesConfig.
type Rules struct {
	hidden     []string
	favorites  []string
	focus      []string
	workspaces map[string][]string
}

// New returns Rules for cfg. Patterns are expected to be validated by
// config.Validate; an invalid pattern never matches.
func New(cfg config.RulesConfig) *Rules {
	return &Rules{
		hidden:     slices.Clone(cfg.Hidden),
		favorites:  slices.Clone(cfg.Favorites),
		focus:      slices.Clone(cfg.Focus),
		workspaces: cfg.Workspaces,
	}
}

// Hidden reports whether id matches a hidden pattern.
func (r *Rules) Hidden(id string) bool {
	return matchAny(r.hidden, id)
}

// Workspaces returns the configured workspace names, sorted.
func (r *Rules) Workspaces() []string {
	names := make([]string, 0, len(r.workspaces))
	for name := range r.workspaces {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Filter drops hidden entries. In focus mode only focus matches are kept and
// with a workspace only that workspace's matches. An unknown workspace keeps
// nothing. The input is not modified.
func (r *Rules) Filter(entries []catalog.Entry, mode catalog.Mode) []catalog.Entry {
	var scope []string
	if mode.Workspace != "" {
		scope = r.workspaces[mode.Workspace]
	}

	out := make([]catalog.Entry, 0, len(entries))
	for _, e := range entries {
		if r.Hidden(e.ID) {
			continue
		}
		if mode.Focus && !matchAny(r.focus, e.ID) {
			continue
		}
		if mode.Workspace != "" && !matchAny(scope, e.ID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ApplyFavorites moves entries matching a favorite pattern to the front, in
// pattern order. Everything else keeps its relative order.
func (r *Rules) ApplyFavorites(entries []catalog.Entry, _ catalog.Mode) []catalog.Entry {
	if len(r.favorites) == 0 {
		return entries
	}

	rank := func(id string) int {
		for i, pat := range r.favorites {
			if match(pat, id) {
				return i
			}
		}
		return len(r.favorites)
	}
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b catalog.Entry) int {
		return rank(a.ID) - rank(b.ID)
	})
	return out
}

func matchAny(patterns []string, id string) bool {
	return slices.ContainsFunc(patterns, func(pat string) bool { return match(pat, id) })
}

func match(pattern, id string) bool {
	ok, err := doublestar.Match(pattern, id)
	return err == nil && ok
}
