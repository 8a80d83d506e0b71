// Package desktop implements the catalog provider over XDG desktop entries.
//
// Identifiers are desktop-file ids: the path of a .desktop file relative to
// its applications directory with "/" replaced by "-". When the same id
// exists in several directories the earliest directory wins, so user entries
// shadow system ones.
//
// Listing only walks the directories. Labels and launch targets are parsed
// on demand, since parsing every file is the expensive part of a scan.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/raphi011/appcat/internal/catalog"
)

const ext = ".desktop"

// Provider lists and resolves desktop entries found under a set of
// applications directories.
type Provider struct {
	dirs []string

	mu    sync.Mutex
	paths map[string]string // id -> file, from the last scan
}

// New returns a Provider over dirs, highest precedence first.
func New(dirs []string) *Provider {
	return &Provider{dirs: slices.Clone(dirs)}
}

// ListIdentifiers walks every directory and returns the sorted ids.
func (p *Provider) ListIdentifiers(ctx context.Context) ([]string, error) {
	paths, err := p.scan(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// ResolveLabel returns the Name of the entry.
func (p *Provider) ResolveLabel(ctx context.Context, id string) (string, error) {
	e, err := p.entry(ctx, id)
	if err != nil {
		return "", err
	}
	return e.Name, nil
}

// ResolveLaunchTarget returns the Exec line of the entry with field codes
// removed. Entries that are gone, malformed, hidden or not applications resolve to
// catalog.ErrNotFound.
func (p *Provider) ResolveLaunchTarget(ctx context.Context, id string) (string, error) {
	e, err := p.entry(ctx, id)
	if err != nil {
		return "", err
	}
	if !e.Launchable() {
		return "", fmt.Errorf("%s: %w", id, catalog.ErrNotFound)
	}
	return StripFieldCodes(e.Exec), nil
}

func (p *Provider) entry(ctx context.Context, id string) (*Entry, error) {
	path, err := p.locate(ctx, id)
	if err != nil {
		return nil, err
	}
	e, err := ParseFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", id, catalog.ErrNotFound)
	}
	var perr *ParseError
	if errors.As(err, &perr) {
		// A malformed file is treated like a missing one
		return nil, fmt.Errorf("%s: %w: %w", id, catalog.ErrNotFound, err)
	}
	return e, err
}

// locate finds the file of id, rescanning once if the last scan does not
// know it.
func (p *Provider) locate(ctx context.Context, id string) (string, error) {
	p.mu.Lock()
	path, ok := p.paths[id]
	p.mu.Unlock()
	if ok {
		return path, nil
	}

	paths, err := p.scan(ctx)
	if err != nil {
		return "", err
	}
	if path, ok := paths[id]; ok {
		return path, nil
	}
	return "", fmt.Errorf("%s: %w", id, catalog.ErrNotFound)
}

// scan walks all directories and records the winning file per id.
func (p *Provider) scan(ctx context.Context) (map[string]string, error) {
	paths := make(map[string]string)
	for _, dir := range p.dirs {
		found, err := walkDir(ctx, dir)
		if err != nil {
			return nil, err
		}
		for id, path := range found {
			if _, taken := paths[id]; !taken {
				paths[id] = path
			}
		}
	}

	p.mu.Lock()
	p.paths = paths
	p.mu.Unlock()
	return paths, nil
}

// walkDir collects the desktop files below dir. A missing dir is empty.
func walkDir(ctx context.Context, dir string) (map[string]string, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var mu sync.Mutex
	found := make(map[string]string)
	conf := fastwalk.Config{Follow: true}

	err := fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Unreadable subtrees are skipped
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ext) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}

		mu.Lock()
		found[ID(rel)] = path
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return found, nil
}

// ID converts a path relative to an applications directory into a
// desktop-file id.
func ID(rel string) string {
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
}
