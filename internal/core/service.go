package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/JonMunkholm/RedirectMap/internal/config"
	"github.com/JonMunkholm/RedirectMap/internal/logging"
	"github.com/google/uuid"
)

// SlugPreviewLimit is how many slugs a summary shows before "+N more".
const SlugPreviewLimit = 20

// Service owns workspace state. Every mutation parses or computes first and
// then replaces the stored workspace, so a failed call leaves it untouched.
type Service struct {
	store    WorkspaceStore
	limiter  *UploadLimiter
	observer Observer

	maxFileSize int64
	loadTimeout time.Duration
	now         func() time.Time

	// mu serializes read-modify-write cycles against the store.
	mu sync.Mutex
}

// NewService wires a Service. A nil observer disables event reporting.
func NewService(store WorkspaceStore, cfg *config.Config, observer Observer) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		store:       store,
		limiter:     NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		observer:    observer,
		maxFileSize: cfg.Upload.MaxFileSize,
		loadTimeout: cfg.Upload.Timeout,
		now:         time.Now,
	}
}

// CreateWorkspace starts an empty workspace.
func (s *Service) CreateWorkspace(ctx context.Context) (*Workspace, error) {
	now := s.now()
	ws := &Workspace{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Put(ctx, ws); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	logging.WithFields(ctx, "workspace_id", ws.ID).Info("workspace created", clientAttrs(ctx)...)
	return ws, nil
}

// Workspace returns the stored workspace.
func (s *Service) Workspace(ctx context.Context, id string) (*Workspace, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrWorkspaceNotFound
	}
	return s.store.Get(ctx, id)
}

func (s *Service) DeleteWorkspace(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrWorkspaceNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, id)
}

// LoadSitemap parses a sitemap from r and replaces the workspace slugs.
// host overrides the inferred reference host when non-empty. Existing
// redirect records are kept.
func (s *Service) LoadSitemap(ctx context.Context, id, name, host string, r io.Reader) (*Workspace, error) {
	if _, err := s.Workspace(ctx, id); err != nil {
		return nil, err
	}

	var slugs []string
	err := s.withUploadSlot(ctx, func() error {
		markup, err := ReadUpload(r, s.maxFileSize, false)
		if err != nil {
			return err
		}
		slugs, err = ExtractSlugsForHost(markup, host)
		return err
	})
	if err != nil {
		s.fail("sitemap", err)
		return nil, err
	}

	ws, err := s.update(ctx, id, func(ws *Workspace) error {
		ws.SitemapName = name
		ws.Slugs = slugs
		return nil
	})
	if err != nil {
		s.fail("sitemap", err)
		return nil, err
	}

	s.observer.SitemapLoaded(len(slugs))
	logging.WithFields(ctx, "workspace_id", id).Info("sitemap loaded",
		append([]any{"file", name, "slugs", len(slugs)}, clientAttrs(ctx)...)...)
	return ws, nil
}

// LoadRedirects parses a redirect CSV from r and replaces the workspace
// records. It fails with ErrNoSitemapLoaded before reading r when the
// workspace has no slugs.
func (s *Service) LoadRedirects(ctx context.Context, id, name string, r io.Reader) (*Workspace, error) {
	current, err := s.Workspace(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(current.Slugs) == 0 {
		s.fail("redirects", ErrNoSitemapLoaded)
		return nil, ErrNoSitemapLoaded
	}

	var rows []Row
	err = s.withUploadSlot(ctx, func() error {
		text, err := ReadUpload(r, s.maxFileSize, true)
		if err != nil {
			return err
		}
		rows = ParseCSV(text)
		return nil
	})
	if err != nil {
		s.fail("redirects", err)
		return nil, err
	}

	var count int
	ws, err := s.update(ctx, id, func(ws *Workspace) error {
		records, err := BuildRedirects(rows, ws.Slugs)
		if err != nil {
			return err
		}
		ws.RedirectName = name
		ws.Redirects = records
		count = len(records)
		return nil
	})
	if err != nil {
		s.fail("redirects", err)
		return nil, err
	}

	s.observer.RedirectsLoaded(count)
	logging.WithFields(ctx, "workspace_id", id).Info("redirects loaded",
		append([]any{"file", name, "records", count}, clientAttrs(ctx)...)...)
	return ws, nil
}

// ApplyBulkDestination sets every record's destination. An empty value is a
// no-op and returns the workspace unchanged.
func (s *Service) ApplyBulkDestination(ctx context.Context, id, value string) (*Workspace, error) {
	ws, err := s.update(ctx, id, func(ws *Workspace) error {
		ws.Redirects = ApplyBulkDestination(ws.Redirects, value)
		return nil
	})
	if err != nil {
		s.fail("bulk_destination", err)
	}
	return ws, err
}

// SetDestination edits the destination of one record.
func (s *Service) SetDestination(ctx context.Context, id string, index int, value string) (*Workspace, error) {
	ws, err := s.update(ctx, id, func(ws *Workspace) error {
		records, err := SetDestination(ws.Redirects, index, value)
		if err != nil {
			return err
		}
		ws.Redirects = records
		return nil
	})
	if err != nil {
		s.fail("set_destination", err)
	}
	return ws, err
}

// SuggestSlugs lists workspace slugs starting with prefix, for completing a
// destination while it is typed.
func (s *Service) SuggestSlugs(ctx context.Context, id, prefix string, limit int) ([]string, error) {
	ws, err := s.Workspace(ctx, id)
	if err != nil {
		return nil, err
	}
	return MatchSlugs(ws.Slugs, prefix, limit), nil
}

// ExportSlugs writes the slug export to w and returns its download name.
func (s *Service) ExportSlugs(ctx context.Context, id string, format Format, w io.Writer) (string, error) {
	ws, err := s.Workspace(ctx, id)
	if err != nil {
		return "", err
	}
	if len(ws.Slugs) == 0 {
		return "", ErrNothingToExport
	}
	if err := WriteTable(w, SlugTable(ws.Slugs), format, "Slugs"); err != nil {
		return "", fmt.Errorf("export slugs: %w", err)
	}
	return format.FileName(SlugExportName), nil
}

// ExportRedirects writes the redirect export to w and returns its download name.
func (s *Service) ExportRedirects(ctx context.Context, id string, format Format, w io.Writer) (string, error) {
	ws, err := s.Workspace(ctx, id)
	if err != nil {
		return "", err
	}
	if len(ws.Redirects) == 0 {
		return "", ErrNothingToExport
	}
	if err := WriteTable(w, RedirectTable(ws.Redirects), format, "Redirects"); err != nil {
		return "", fmt.Errorf("export redirects: %w", err)
	}
	return format.FileName(RedirectExportName), nil
}

// UploadLimiterStatus reports parse slot usage.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight parses finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// update applies fn to a copy of the stored workspace and stores the copy
// only when fn succeeds.
func (s *Service) update(ctx context.Context, id string, fn func(*Workspace) error) (*Workspace, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrWorkspaceNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := ws.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()
	if err := s.store.Put(ctx, next); err != nil {
		return nil, fmt.Errorf("save workspace: %w", err)
	}
	return next, nil
}

// withUploadSlot runs fn holding an upload slot. The wait for a slot is
// bounded by the load timeout.
func (s *Service) withUploadSlot(ctx context.Context, fn func() error) error {
	if s.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.loadTimeout)
		defer cancel()
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer s.limiter.Release()
	return fn()
}

func (s *Service) fail(op string, err error) {
	s.observer.OperationFailed(op, MapError(err).Code)
}
