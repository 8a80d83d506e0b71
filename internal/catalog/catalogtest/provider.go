// Package catalogtest provides an in-memory catalog.Provider for tests.
package catalogtest

import (
	"context"
	"slices"
	"sync"

	"github.com/raphi011/appcat/internal/catalog"
)

// Provider is a catalog.Provider backed by a map of id -> label.
// It is safe for concurrent use.
type Provider struct {
	mu     sync.Mutex
	labels map[string]string
	order  []string
	err    error

	listCalls  int
	labelCalls int
}

// New returns a provider reporting the given id/label pairs.
// Enumeration order follows the order of ids in labels' insertion, see Set.
func New(pairs ...string) *Provider {
	p := &Provider{labels: make(map[string]string)}
	p.Set(pairs...)
	return p
}

// Set replaces the catalog with the given id, label pairs.
func (p *Provider) Set(pairs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.labels = make(map[string]string)
	p.order = nil
	for i := 0; i+1 < len(pairs); i += 2 {
		p.labels[pairs[i]] = pairs[i+1]
		p.order = append(p.order, pairs[i])
	}
}

// Remove drops ids from the catalog, as if they were uninstalled.
func (p *Provider) Remove(ids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		delete(p.labels, id)
	}
	p.order = slices.DeleteFunc(p.order, func(id string) bool {
		_, ok := p.labels[id]
		return !ok
	})
}

// Reverse flips the enumeration order without changing content.
func (p *Provider) Reverse() {
	p.mu.Lock()
	defer p.mu.Unlock()
	slices.Reverse(p.order)
}

// Fail makes every call return err until Fail(nil).
func (p *Provider) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// ListCalls returns how often ListIdentifiers was called.
func (p *Provider) ListCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listCalls
}

// LabelCalls returns how often ResolveLabel was called.
func (p *Provider) LabelCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.labelCalls
}

func (p *Provider) ListIdentifiers(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++
	if p.err != nil {
		return nil, p.err
	}
	return slices.Clone(p.order), nil
}

func (p *Provider) ResolveLabel(ctx context.Context, id string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.labelCalls++
	if p.err != nil {
		return "", p.err
	}
	label, ok := p.labels[id]
	if !ok {
		return "", catalog.ErrNotFound
	}
	return label, nil
}

func (p *Provider) ResolveLaunchTarget(ctx context.Context, id string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	if _, ok := p.labels[id]; !ok {
		return "", catalog.ErrNotFound
	}
	return "run " + id, nil
}
