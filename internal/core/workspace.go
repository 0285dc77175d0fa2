package core

import (
	"context"
	"slices"
	"time"
)

// Workspace is one user's reconciliation session: the slugs of the last
// sitemap and the redirect records built against them.
type Workspace struct {
	ID           string           `json:"id"`
	SitemapName  string           `json:"sitemap_name,omitempty"`
	Slugs        []string         `json:"slugs"`
	RedirectName string           `json:"redirect_name,omitempty"`
	Redirects    []RedirectRecord `json:"redirects"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Clone returns a copy that shares no slices with w.
func (w *Workspace) Clone() *Workspace {
	c := *w
	c.Slugs = slices.Clone(w.Slugs)
	c.Redirects = slices.Clone(w.Redirects)
	return &c
}

// WorkspaceStore persists workspaces. Get returns ErrWorkspaceNotFound for
// unknown or expired IDs. Implementations must not retain the pointer passed
// to Put nor hand out internal state from Get.
type WorkspaceStore interface {
	Get(ctx context.Context, id string) (*Workspace, error)
	Put(ctx context.Context, ws *Workspace) error
	Delete(ctx context.Context, id string) error
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Observer receives domain events, typically to feed metrics.
type Observer interface {
	SitemapLoaded(slugs int)
	RedirectsLoaded(records int)
	OperationFailed(op, code string)
}

type nopObserver struct{}

func (nopObserver) SitemapLoaded(int)              {}
func (nopObserver) RedirectsLoaded(int)            {}
func (nopObserver) OperationFailed(string, string) {}
