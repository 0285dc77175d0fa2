package core

// scheduler.go runs background maintenance for the workspace store.
//
// Workspaces untouched for longer than the TTL are purged on a fixed
// interval. A failed purge is logged and retried on the next tick; it never
// stops the scheduler.

import (
	"context"
	"log/slog"
	"time"
)

// PurgeExpired deletes workspaces last updated more than ttl ago.
func (s *Service) PurgeExpired(ctx context.Context, ttl time.Duration) (int, error) {
	return s.store.PurgeBefore(ctx, s.now().Add(-ttl))
}

// StartPurgeScheduler purges expired workspaces immediately and then every
// interval until ctx is cancelled. Run it in its own goroutine.
func (s *Service) StartPurgeScheduler(ctx context.Context, interval, ttl time.Duration) {
	slog.Info("purge scheduler started", "interval", interval, "ttl", ttl)

	s.runPurge(ctx, ttl)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("purge scheduler stopped")
			return
		case <-ticker.C:
			s.runPurge(ctx, ttl)
		}
	}
}

func (s *Service) runPurge(ctx context.Context, ttl time.Duration) {
	start := time.Now()
	purged, err := s.PurgeExpired(ctx, ttl)
	if err != nil {
		slog.Error("workspace purge failed", "error", err)
		return
	}
	slog.Debug("workspace purge completed",
		"purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
