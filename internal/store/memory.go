// Package store provides the workspace stores used by core.Service: an
// expiring in-memory LRU for single-instance deployments and PostgreSQL when
// DATABASE_URL is set.
package store

import (
	"context"
	"time"

	"github.com/JonMunkholm/RedirectMap/internal/core"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory keeps workspaces in an LRU cache. Entries expire ttl after their
// last Put and the least recently used entry is evicted past size.
type Memory struct {
	cache *expirable.LRU[string, *core.Workspace]
}

var _ core.WorkspaceStore = (*Memory)(nil)

func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{
		cache: expirable.NewLRU[string, *core.Workspace](size, nil, ttl),
	}
}

func (m *Memory) Get(_ context.Context, id string) (*core.Workspace, error) {
	ws, ok := m.cache.Get(id)
	if !ok {
		return nil, core.ErrWorkspaceNotFound
	}
	return ws.Clone(), nil
}

func (m *Memory) Put(_ context.Context, ws *core.Workspace) error {
	m.cache.Add(ws.ID, ws.Clone())
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	if !m.cache.Remove(id) {
		return core.ErrWorkspaceNotFound
	}
	return nil
}

// PurgeBefore drops workspaces last updated before cutoff. The cache also
// expires entries on its own; this catches a TTL shorter than the cache's.
func (m *Memory) PurgeBefore(_ context.Context, cutoff time.Time) (int, error) {
	purged := 0
	for _, id := range m.cache.Keys() {
		ws, ok := m.cache.Peek(id)
		if ok && ws.UpdatedAt.Before(cutoff) && m.cache.Remove(id) {
			purged++
		}
	}
	return purged, nil
}

// Len reports how many workspaces are held.
func (m *Memory) Len() int {
	return m.cache.Len()
}
