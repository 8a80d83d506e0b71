// Package config handles loading and validation of appcat configuration.
//
// Configuration is read from ~/.appcat/config.toml with environment
// variable overrides.
//
// # Configuration Sources (highest priority first)
//
//   - APPCAT_DIR env var: data directory (cache, history and config file)
//   - APPCAT_CACHE_TTL env var: freshness window of the persisted catalog
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - data_dir: where cache records and history live (must be absolute or ~/...)
//   - application_dirs: directories scanned for .desktop files, in precedence order
//   - contacts_file: optional list of contact names offered in search results
//   - [cache]: TTLs and timing of the catalog pipeline
//   - [search]: debounce, contact limit and fallback URL templates
//   - [rules]: hidden, favorite, focus and workspace patterns
//   - [ui]: theme, light/dark mode, nerd font symbols and picker height
//
// # Rules
//
// Patterns in [rules] are doublestar globs matched against desktop ids:
//
//	[rules]
//	hidden = ["org.gnome.*Tour*.desktop"]
//	favorites = ["firefox.desktop"]
//	focus = ["org.gnome.*", "code.desktop"]
//
//	[rules.workspaces]
//	work = ["slack.desktop", "code.desktop"]
//
// # Durations
//
// Durations use Go syntax ("5m", "250ms"). Negative values are rejected.
package config
