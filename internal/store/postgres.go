package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/RedirectMap/internal/config"
	"github.com/JonMunkholm/RedirectMap/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// DB is the subset of pgxpool.Pool the store uses, so tests can pass pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores each workspace as one row with the slugs and redirect
// records in JSONB columns.
type Postgres struct {
	db DB
}

var _ core.WorkspaceStore = (*Postgres)(nil)

func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

// OpenPool parses the URL, applies the pool settings, and pings the server.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}

// EnsureSchema creates the workspaces table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const upsertWorkspaceSQL = `INSERT INTO workspaces
    (id, sitemap_name, redirect_name, slugs, redirects, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    sitemap_name  = EXCLUDED.sitemap_name,
    redirect_name = EXCLUDED.redirect_name,
    slugs         = EXCLUDED.slugs,
    redirects     = EXCLUDED.redirects,
    updated_at    = EXCLUDED.updated_at`

func (p *Postgres) Put(ctx context.Context, ws *core.Workspace) error {
	slugs, err := marshalList(ws.Slugs)
	if err != nil {
		return fmt.Errorf("encode slugs: %w", err)
	}
	redirects, err := marshalList(ws.Redirects)
	if err != nil {
		return fmt.Errorf("encode redirects: %w", err)
	}

	_, err = p.db.Exec(ctx, upsertWorkspaceSQL,
		ws.ID, ws.SitemapName, ws.RedirectName, slugs, redirects, ws.CreatedAt, ws.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save workspace %s: %w", ws.ID, err)
	}
	return nil
}

const selectWorkspaceSQL = `SELECT id::text, sitemap_name, redirect_name, slugs, redirects, created_at, updated_at
FROM workspaces WHERE id = $1`

func (p *Postgres) Get(ctx context.Context, id string) (*core.Workspace, error) {
	var (
		ws        core.Workspace
		slugs     []byte
		redirects []byte
	)
	err := p.db.QueryRow(ctx, selectWorkspaceSQL, id).Scan(
		&ws.ID, &ws.SitemapName, &ws.RedirectName, &slugs, &redirects, &ws.CreatedAt, &ws.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", id, err)
	}

	if err := json.Unmarshal(slugs, &ws.Slugs); err != nil {
		return nil, fmt.Errorf("decode slugs: %w", err)
	}
	if err := json.Unmarshal(redirects, &ws.Redirects); err != nil {
		return nil, fmt.Errorf("decode redirects: %w", err)
	}
	return &ws, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workspace %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrWorkspaceNotFound
	}
	return nil
}

func (p *Postgres) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM workspaces WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge workspaces: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// marshalList encodes a nil slice as [] so the column never holds null.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
