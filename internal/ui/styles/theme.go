package styles

import (
	"image/color"
	"io"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-isatty"

	"github.com/raphi011/appcat/internal/config"
)

// Theme defines the color palette for UI components
type Theme struct {
	Primary color.Color // borders, prompt
	Accent  color.Color // selected row, matches
	Success color.Color
	Error   color.Color
	Muted   color.Color // ids, hints, stale rows
	Normal  color.Color
	Info    color.Color
}

// themeFamily groups light and dark variants of a theme
type themeFamily struct {
	Light *Theme // nil if no light variant
	Dark  *Theme // nil if no dark variant
}

// Preset themes
var (
	DefaultTheme = Theme{
		Primary: lipgloss.Color("62"),
		Accent:  lipgloss.Color("212"),
		Success: lipgloss.Color("82"),
		Error:   lipgloss.Color("196"),
		Muted:   lipgloss.Color("240"),
		Normal:  lipgloss.Color("252"),
		Info:    lipgloss.Color("244"),
	}

	DefaultLightTheme = Theme{
		Primary: lipgloss.Color("25"),
		Accent:  lipgloss.Color("162"),
		Success: lipgloss.Color("28"),
		Error:   lipgloss.Color("160"),
		Muted:   lipgloss.Color("245"),
		Normal:  lipgloss.Color("235"),
		Info:    lipgloss.Color("242"),
	}

	NordTheme = Theme{
		Primary: lipgloss.Color("#88c0d0"),
		Accent:  lipgloss.Color("#b48ead"),
		Success: lipgloss.Color("#a3be8c"),
		Error:   lipgloss.Color("#bf616a"),
		Muted:   lipgloss.Color("#4c566a"),
		Normal:  lipgloss.Color("#eceff4"),
		Info:    lipgloss.Color("#81a1c1"),
	}

	NordLightTheme = Theme{
		Primary: lipgloss.Color("#5e81ac"),
		Accent:  lipgloss.Color("#b48ead"),
		Success: lipgloss.Color("#a3be8c"),
		Error:   lipgloss.Color("#bf616a"),
		Muted:   lipgloss.Color("#9a9a9a"),
		Normal:  lipgloss.Color("#2e3440"),
		Info:    lipgloss.Color("#81a1c1"),
	}

	// NoneTheme keeps bold and underline but leaves colors to the terminal
	NoneTheme = Theme{
		Primary: lipgloss.NoColor{},
		Accent:  lipgloss.NoColor{},
		Success: lipgloss.NoColor{},
		Error:   lipgloss.NoColor{},
		Muted:   lipgloss.NoColor{},
		Normal:  lipgloss.NoColor{},
		Info:    lipgloss.NoColor{},
	}
)

// themeFamilies is keyed by config.ValidThemeNames
var themeFamilies = map[string]themeFamily{
	"none":    {Light: &NoneTheme, Dark: &NoneTheme},
	"default": {Light: &DefaultLightTheme, Dark: &DefaultTheme},
	"nord":    {Light: &NordLightTheme, Dark: &NordTheme},
}

var currentTheme = DefaultTheme

// Current returns the active theme
func Current() Theme {
	return currentTheme
}

// Init activates the theme and symbol set from cfg.
// Call this after loading config and before rendering anything.
func Init(cfg config.UIConfig) {
	currentTheme = selectTheme(cfg, darkBackground)
	applyTheme(currentTheme)
	SetNerdfont(cfg.Nerdfont)
}

// darkBackground queries the terminal. Without a terminal to ask it
// assumes dark.
func darkBackground() bool {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stderr) {
		return true
	}
	return lipgloss.HasDarkBackground(os.Stdin, os.Stderr)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

// selectTheme picks the variant of cfg's family. Unknown names fall back to
// the default family; config.Validate rejects them before this point.
func selectTheme(cfg config.UIConfig, isDark func() bool) Theme {
	family, ok := themeFamilies[cfg.Theme]
	if !ok {
		family = themeFamilies["default"]
	}

	var theme *Theme
	switch cfg.Mode {
	case "light":
		theme = family.Light
	case "dark":
		theme = family.Dark
	default:
		if isDark() {
			theme = family.Dark
		} else {
			theme = family.Light
		}
	}

	// Fall back if the requested variant doesn't exist
	if theme == nil {
		if family.Dark != nil {
			theme = family.Dark
		} else {
			theme = family.Light
		}
	}
	return *theme
}

// applyTheme updates all global style variables to use the given theme
func applyTheme(t Theme) {
	Primary = t.Primary
	Accent = t.Accent
	Success = t.Success
	Error = t.Error
	Muted = t.Muted
	Normal = t.Normal
	Info = t.Info

	PrimaryStyle = lipgloss.NewStyle().Foreground(t.Primary)
	AccentStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(t.Success)
	ErrorStyle = lipgloss.NewStyle().Foreground(t.Error)
	MutedStyle = lipgloss.NewStyle().Foreground(t.Muted)
	NormalStyle = lipgloss.NewStyle().Foreground(t.Normal)
	InfoStyle = lipgloss.NewStyle().Foreground(t.Info).Italic(true)
	HighlightStyle = lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Underline(true)
}
