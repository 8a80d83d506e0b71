package catalog

import "context"

// Provider is the authoritative, expensive source of what can be launched.
// All methods may block for tens of milliseconds and must never be called
// from the UI goroutine.
type Provider interface {
	// ListIdentifiers returns every currently launchable identifier.
	ListIdentifiers(ctx context.Context) ([]string, error)
	// ResolveLabel returns the human-readable label of id.
	ResolveLabel(ctx context.Context, id string) (string, error)
	// ResolveLaunchTarget returns what to execute for id, or ErrNotFound.
	ResolveLaunchTarget(ctx context.Context, id string) (string, error)
}

// Mode carries the caller's business-rule flags to a filter policy.
type Mode struct {
	Focus     bool   `json:"focus,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}
