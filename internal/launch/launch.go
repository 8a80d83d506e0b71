// Package launch acts on a chosen catalog entry.
//
// Applications are started detached through sh so their Exec line keeps its
// quoting. Fallback searches open a URL built from the configured template.
// Math results and contacts are copied to the clipboard.
package launch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/raphi011/appcat/internal/catalog"
	"github.com/raphi011/appcat/internal/config"
)

// Action says what Launch did with an entry.
type Action int

const (
	ActionStarted Action = iota
	ActionOpened
	ActionCopied
)

func (a Action) String() string {
	switch a {
	case ActionStarted:
		return "started"
	case ActionOpened:
		return "opened"
	case ActionCopied:
		return "copied"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ErrNoTarget is returned for an entry without anything to launch.
var ErrNoTarget = errors.New("entry has no launch target")

// Launcher launches catalog entries. The function fields default to the
// real system calls and are replaced in tests.
type Launcher struct {
	URLs config.URLConfig

	// Start runs an application command line without waiting for it.
	Start func(ctx context.Context, commandLine string) error
	// Open hands a URL to the desktop.
	Open func(ctx context.Context, u string) error
	// Copy places text on the clipboard.
	Copy func(text string) error
}

// New returns a Launcher using the system shell, xdg-open and clipboard.
func New(urls config.URLConfig) *Launcher {
	return &Launcher{
		URLs: urls,
		Start: func(ctx context.Context, commandLine string) error {
			return StartDetached(ctx, "", "sh", "-c", commandLine)
		},
		Open: func(ctx context.Context, u string) error {
			return RunContext(ctx, "", "xdg-open", u)
		},
		Copy: clipboard.WriteAll,
	}
}

// Launch acts on e according to its kind.
func (l *Launcher) Launch(ctx context.Context, e catalog.Entry) (Action, error) {
	if strings.TrimSpace(e.Payload) == "" {
		return 0, fmt.Errorf("%s: %w", e.ID, ErrNoTarget)
	}

	switch e.Kind {
	case catalog.KindApp:
		if err := l.Start(ctx, e.Payload); err != nil {
			return 0, fmt.Errorf("launch %s: %w", e.DisplayLabel(), err)
		}
		return ActionStarted, nil

	case catalog.KindMath, catalog.KindContact:
		if err := l.Copy(e.Payload); err != nil {
			return 0, fmt.Errorf("copy to clipboard: %w", err)
		}
		return ActionCopied, nil
	}

	u, err := l.SearchURL(e.Kind, e.Payload)
	if err != nil {
		return 0, err
	}
	if err := l.Open(ctx, u); err != nil {
		return 0, fmt.Errorf("open %s: %w", u, err)
	}
	return ActionOpened, nil
}

// SearchURL expands the template configured for kind with query.
func (l *Launcher) SearchURL(kind catalog.Kind, query string) (string, error) {
	var tmpl string
	switch kind {
	case catalog.KindStoreSearch:
		tmpl = l.URLs.Store
	case catalog.KindMapsSearch:
		tmpl = l.URLs.Maps
	case catalog.KindVideoSearch:
		tmpl = l.URLs.Video
	case catalog.KindWebSearch:
		tmpl = l.URLs.Web
	default:
		return "", fmt.Errorf("no search url for kind %s", kind)
	}
	if tmpl == "" {
		return "", fmt.Errorf("search.urls.%s is not configured", kind)
	}
	return strings.ReplaceAll(tmpl, config.QueryPlaceholder, url.QueryEscape(query)), nil
}
