package styles

import "github.com/raphi011/appcat/internal/catalog"

// Symbols holds one marker per entry kind
type Symbols struct {
	App     string
	Math    string
	Contact string
	Search  string
}

var defaultSymbols = Symbols{
	App:     "▸",
	Math:    "=",
	Contact: "@",
	Search:  "?",
}

var nerdfontSymbols = Symbols{
	App:     "\uf135", // nf-fa-rocket
	Math:    "\uf1ec", // nf-fa-calculator
	Contact: "\uf007", // nf-fa-user
	Search:  "\uf002", // nf-fa-search
}

var currentSymbols = defaultSymbols

// SetNerdfont enables or disables nerd font symbols
func SetNerdfont(enabled bool) {
	if enabled {
		currentSymbols = nerdfontSymbols
	} else {
		currentSymbols = defaultSymbols
	}
}

// CurrentSymbols returns the active symbol set
func CurrentSymbols() Symbols {
	return currentSymbols
}

// KindSymbol returns the marker for entries of kind k.
func KindSymbol(k catalog.Kind) string {
	switch k {
	case catalog.KindApp:
		return currentSymbols.App
	case catalog.KindMath:
		return currentSymbols.Math
	case catalog.KindContact:
		return currentSymbols.Contact
	}
	return currentSymbols.Search
}
