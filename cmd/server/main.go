package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/RedirectMap/internal/config"
	"github.com/JonMunkholm/RedirectMap/internal/core"
	"github.com/JonMunkholm/RedirectMap/internal/logging"
	"github.com/JonMunkholm/RedirectMap/internal/metrics"
	"github.com/JonMunkholm/RedirectMap/internal/store"
	"github.com/JonMunkholm/RedirectMap/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"database", cfg.UsesDatabase(),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"workspace_ttl", cfg.Workspace.TTL,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()

	var workspaces core.WorkspaceStore
	if cfg.UsesDatabase() {
		pool, err := store.OpenPool(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		workspaces = pg
	} else {
		slog.Info("no DATABASE_URL set, keeping workspaces in memory",
			"max_workspaces", cfg.Workspace.MaxInMemory)
		workspaces = store.NewMemory(cfg.Workspace.MaxInMemory, cfg.Workspace.TTL)
	}

	m := metrics.New()
	service := core.NewService(workspaces, cfg, m)
	server := web.NewServer(service, cfg, m)

	// Background jobs stop before the server drains.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartPurgeScheduler(jobCtx, cfg.Workspace.PurgeInterval, cfg.Workspace.TTL)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.UploadLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	slog.Info("server stopped")
}
