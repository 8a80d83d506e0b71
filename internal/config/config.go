package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that decodes from Go duration strings.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// CacheConfig holds the timing of the catalog pipeline.
type CacheConfig struct {
	TTL         Duration `toml:"ttl"`          // persisted catalog freshness
	MemoryTTL   Duration `toml:"memory_ttl"`   // in-process snapshot freshness
	MetadataTTL Duration `toml:"metadata_ttl"` // label freshness
	LiveTimeout Duration `toml:"live_timeout"`
	RefineDelay Duration `toml:"refine_delay"`
	RetryDelay  Duration `toml:"retry_delay"`
	Workers     int      `toml:"workers"`
}

// URLConfig holds fallback search URL templates. {query} is replaced by the
// escaped query text.
type URLConfig struct {
	Store string `toml:"store"`
	Maps  string `toml:"maps"`
	Video string `toml:"video"`
	Web   string `toml:"web"`
}

// SearchConfig holds search settings.
type SearchConfig struct {
	Debounce     Duration  `toml:"debounce"`
	ContactLimit int       `toml:"contact_limit"`
	URLs         URLConfig `toml:"urls"`
}

// RulesConfig holds the business rules applied to the catalog.
type RulesConfig struct {
	Hidden     []string            `toml:"hidden"`
	Favorites  []string            `toml:"favorites"`
	Focus      []string            `toml:"focus"`
	Workspaces map[string][]string `toml:"workspaces"`
}

// UIConfig holds the look of the picker and tables.
type UIConfig struct {
	Theme    string `toml:"theme"`    // one of ValidThemeNames
	Mode     string `toml:"mode"`     // one of ValidThemeModes
	Nerdfont bool   `toml:"nerdfont"` // nerd font kind symbols
	Height   int    `toml:"height"`   // visible result rows in the picker
}

// ValidThemeNames lists the theme families.
var ValidThemeNames = []string{"none", "default", "nord"}

// ValidThemeModes lists the accepted ui.mode values.
var ValidThemeModes = []string{"auto", "light", "dark"}

// Config holds the appcat configuration
type Config struct {
	DataDir         string       `toml:"data_dir"`
	ApplicationDirs []string     `toml:"application_dirs"`
	ContactsFile    string       `toml:"contacts_file"`
	Cache           CacheConfig  `toml:"cache"`
	Search          SearchConfig `toml:"search"`
	Rules           RulesConfig  `toml:"rules"`
	UI              UIConfig     `toml:"ui"`
}

// QueryPlaceholder is replaced by the query in URL templates.
const QueryPlaceholder = "{query}"

// Default returns the default configuration
func Default() Config {
	return Config{
		ApplicationDirs: DefaultApplicationDirs(),
		Cache: CacheConfig{
			TTL:         Duration{5 * time.Minute},
			MemoryTTL:   Duration{5 * time.Minute},
			MetadataTTL: Duration{7 * 24 * time.Hour},
			LiveTimeout: Duration{10 * time.Second},
			RefineDelay: Duration{50 * time.Millisecond},
			RetryDelay:  Duration{2 * time.Second},
			Workers:     4,
		},
		Search: SearchConfig{
			Debounce:     Duration{10 * time.Millisecond},
			ContactLimit: 5,
			URLs: URLConfig{
				Store: "https://flathub.org/apps/search?q={query}",
				Maps:  "https://www.openstreetmap.org/search?query={query}",
				Video: "https://www.youtube.com/results?search_query={query}",
				Web:   "https://duckduckgo.com/?q={query}",
			},
		},
		UI: UIConfig{
			Theme:  "default",
			Mode:   "auto",
			Height: 10,
		},
	}
}

// DefaultApplicationDirs returns the XDG application directories in
// precedence order, followed by the flatpak exports.
func DefaultApplicationDirs() []string {
	home, _ := os.UserHomeDir()

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" && home != "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}

	var dirs []string
	if dataHome != "" {
		dirs = append(dirs, filepath.Join(dataHome, "applications"))
	}
	for _, d := range filepath.SplitList(dataDirs) {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "applications"))
		}
	}
	if home != "" {
		dirs = append(dirs, filepath.Join(home, ".local", "share", "flatpak", "exports", "share", "applications"))
	}
	dirs = append(dirs, "/var/lib/flatpak/exports/share/applications")
	return dedupe(dirs)
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil // Empty is allowed (means not configured)
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// DataDir returns the data directory: APPCAT_DIR if set, otherwise ~/.appcat.
// The config file itself lives here, so data_dir from the file is not consulted.
func DataDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return expandPath(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".appcat"), nil
}

// Path returns the path to the config file
func Path() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from the data directory.
// Returns Default() if file doesn't exist (no error)
// Returns error only if file exists but is invalid
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads config from path, applying env overrides and defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		// Decoding into the defaults keeps every unset key at its default
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Default(), fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Default(), err
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	if err := cfg.expand(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// expand resolves ~ in paths and fills in the data directory.
func (c *Config) expand() error {
	if c.DataDir == "" {
		dir, err := DataDir()
		if err != nil {
			return err
		}
		c.DataDir = dir
	}

	var err error
	if c.DataDir, err = expandPath(c.DataDir); err != nil {
		return fmt.Errorf("expand data_dir: %w", err)
	}
	if c.ContactsFile, err = expandPath(c.ContactsFile); err != nil {
		return fmt.Errorf("expand contacts_file: %w", err)
	}
	for i, dir := range c.ApplicationDirs {
		if c.ApplicationDirs[i], err = expandPath(dir); err != nil {
			return fmt.Errorf("expand application_dirs[%d]: %w", i, err)
		}
	}
	return nil
}

const defaultConfig = `# appcat configuration

# Data directory for the catalog cache and launch history
# Must be an absolute path or start with ~ (no relative paths like "." or "..")
# Overridden by APPCAT_DIR.
# data_dir = "~/.appcat"

# Directories scanned for .desktop files, highest precedence first.
# When a desktop id exists in several directories the first one wins.
# Default: $XDG_DATA_HOME/applications, $XDG_DATA_DIRS/*/applications, flatpak exports
# application_dirs = ["~/.local/share/applications", "/usr/share/applications"]

# Optional list of contact names offered in search results.
# One name per line, or a vCard file (FN: lines are used).
# contacts_file = "~/.appcat/contacts.txt"

[cache]
# How long the persisted catalog is shown without a live query.
# Overridden by APPCAT_CACHE_TTL.
ttl = "5m"
# How long the in-process snapshot is reused within one session.
memory_ttl = "5m"
# How long a resolved application name is trusted.
metadata_ttl = "168h"
# Give up on the live query after this long and show what is available.
live_timeout = "10s"
# Pause between the fast sort and the refined sort.
refine_delay = "50ms"
# Pause before the single automatic retry after a failed query.
retry_delay = "2s"
# Concurrent background workers.
workers = 4

[search]
# Input must pause this long before a search runs.
debounce = "10ms"
# Maximum number of contacts in one result list.
contact_limit = 5

# Fallback searches appended to every result list.
# {query} is replaced by the escaped query.
[search.urls]
store = "https://flathub.org/apps/search?q={query}"
maps = "https://www.openstreetmap.org/search?query={query}"
video = "https://www.youtube.com/results?search_query={query}"
web = "https://duckduckgo.com/?q={query}"

[ui]
# Color theme: none, default, nord
theme = "default"
# auto picks the light or dark variant from the terminal background
mode = "auto"
# Use nerd font symbols for entry kinds
nerdfont = false
# Result rows shown by appcat pick
height = 10

# Rules - doublestar glob patterns matched against desktop ids
#
# [rules]
# hidden = ["org.gnome.Tour.desktop", "*-uninstall.desktop"]
# favorites = ["firefox.desktop", "org.gnome.Terminal.desktop"]  # pinned, in this order
# focus = ["org.gnome.*", "code.desktop"]  # the only entries shown with --focus
#
# [rules.workspaces]
# work = ["slack.desktop", "code.desktop", "org.gnome.Evolution.desktop"]
# play = ["steam.desktop", "*Game*"]
`

// ErrExists is returned by Init when the config file is already present.
var ErrExists = errors.New("config file already exists")

// DefaultConfig returns the commented config file written by Init.
func DefaultConfig() string {
	return defaultConfig
}

// Init creates a default config file in the data directory.
// If force is true, overwrites existing file
// Returns the path to the created file
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Encode renders c as TOML.
func (c Config) Encode() (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return "", err
	}
	return b.String(), nil
}
