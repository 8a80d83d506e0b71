package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Environment variables overriding config file settings.
const (
	EnvDir      = "APPCAT_DIR"
	EnvCacheTTL = "APPCAT_CACHE_TTL"
)

func applyEnvOverrides(cfg *Config) error {
	if dir := os.Getenv(EnvDir); dir != "" {
		cfg.DataDir = dir
	}
	if ttl := os.Getenv(EnvCacheTTL); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvCacheTTL, ttl, err)
		}
		cfg.Cache.TTL = Duration{d}
	}
	return nil
}

// Validate checks paths, durations, limits, URL templates and rule patterns.
func (c *Config) Validate() error {
	if err := ValidatePath(c.DataDir, "data_dir"); err != nil {
		return err
	}
	if err := ValidatePath(c.ContactsFile, "contacts_file"); err != nil {
		return err
	}
	for i, dir := range c.ApplicationDirs {
		if err := ValidatePath(dir, fmt.Sprintf("application_dirs[%d]", i)); err != nil {
			return err
		}
	}

	durations := []struct {
		name string
		d    Duration
	}{
		{"cache.ttl", c.Cache.TTL},
		{"cache.memory_ttl", c.Cache.MemoryTTL},
		{"cache.metadata_ttl", c.Cache.MetadataTTL},
		{"cache.live_timeout", c.Cache.LiveTimeout},
		{"cache.refine_delay", c.Cache.RefineDelay},
		{"cache.retry_delay", c.Cache.RetryDelay},
		{"search.debounce", c.Search.Debounce},
	}
	for _, d := range durations {
		if d.d.Duration < 0 {
			return fmt.Errorf("%s must not be negative, got %s", d.name, d.d)
		}
	}

	if c.Cache.Workers < 0 {
		return fmt.Errorf("cache.workers must not be negative, got %d", c.Cache.Workers)
	}
	if c.Search.ContactLimit < 0 {
		return fmt.Errorf("search.contact_limit must not be negative, got %d", c.Search.ContactLimit)
	}
	if c.UI.Height < 0 {
		return fmt.Errorf("ui.height must not be negative, got %d", c.UI.Height)
	}
	if c.UI.Theme != "" && !slices.Contains(ValidThemeNames, c.UI.Theme) {
		return fmt.Errorf("ui.theme must be one of %s, got %q", strings.Join(ValidThemeNames, ", "), c.UI.Theme)
	}
	if c.UI.Mode != "" && !slices.Contains(ValidThemeModes, c.UI.Mode) {
		return fmt.Errorf("ui.mode must be one of %s, got %q", strings.Join(ValidThemeModes, ", "), c.UI.Mode)
	}

	for name, tmpl := range c.Search.URLs.templates() {
		if !strings.Contains(tmpl, QueryPlaceholder) {
			return fmt.Errorf("search.urls.%s must contain %s, got %q", name, QueryPlaceholder, tmpl)
		}
	}

	if err := validatePatterns(c.Rules.Hidden, "rules.hidden"); err != nil {
		return err
	}
	if err := validatePatterns(c.Rules.Focus, "rules.focus"); err != nil {
		return err
	}
	for name, patterns := range c.Rules.Workspaces {
		if err := validatePatterns(patterns, "rules.workspaces."+name); err != nil {
			return err
		}
	}
	return nil
}

func (u URLConfig) templates() map[string]string {
	return map[string]string{
		"store": u.Store,
		"maps":  u.Maps,
		"video": u.Video,
		"web":   u.Web,
	}
}

// validatePatterns checks that all patterns are valid doublestar syntax.
func validatePatterns(patterns []string, field string) error {
	for i, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("invalid %s[%d] %q", field, i, pat)
		}
	}
	return nil
}
