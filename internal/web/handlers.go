package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/RedirectMap/internal/core"
	"github.com/JonMunkholm/RedirectMap/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

const (
	// multipartOverhead is allowed on top of the file size limit for form
	// boundaries and the other fields.
	multipartOverhead = 1 << 20

	// maxJSONBody caps edit requests.
	maxJSONBody = 64 << 10

	defaultSuggestLimit = 10
)

// WorkspaceResponse summarizes a workspace.
type WorkspaceResponse struct {
	WorkspaceID   string    `json:"workspace_id"`
	SitemapName   string    `json:"sitemap_name,omitempty"`
	SlugCount     int       `json:"slug_count"`
	SlugPreview   []string  `json:"slug_preview"`
	MoreSlugs     int       `json:"more_slugs"`
	RedirectName  string    `json:"redirect_name,omitempty"`
	RedirectCount int       `json:"redirect_count"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SitemapResponse is returned after a sitemap upload.
type SitemapResponse struct {
	WorkspaceID string   `json:"workspace_id"`
	SlugCount   int      `json:"slug_count"`
	Status      string   `json:"status"`
	Slugs       []string `json:"slugs"`
}

// RedirectsResponse is returned by every call that changes or lists records.
type RedirectsResponse struct {
	WorkspaceID string                `json:"workspace_id"`
	Count       int                   `json:"count"`
	Status      string                `json:"status"`
	Redirects   []core.RedirectRecord `json:"redirects"`
}

type destinationRequest struct {
	Destination string `json:"destination"`
}

func summarize(ws *core.Workspace) WorkspaceResponse {
	preview, more := core.PreviewSlugs(ws.Slugs, core.SlugPreviewLimit)
	return WorkspaceResponse{
		WorkspaceID:   ws.ID,
		SitemapName:   ws.SitemapName,
		SlugCount:     len(ws.Slugs),
		SlugPreview:   nonNil(preview),
		MoreSlugs:     more,
		RedirectName:  ws.RedirectName,
		RedirectCount: len(ws.Redirects),
		Status:        workspaceStatus(ws),
		CreatedAt:     ws.CreatedAt,
		UpdatedAt:     ws.UpdatedAt,
	}
}

func workspaceStatus(ws *core.Workspace) string {
	switch {
	case len(ws.Slugs) == 0:
		return core.NeedsSitemapStatus
	case len(ws.Redirects) > 0:
		return core.RedirectStatus(len(ws.Redirects))
	default:
		return core.SitemapStatus(len(ws.Slugs))
	}
}

func redirectsResponse(ws *core.Workspace) RedirectsResponse {
	return RedirectsResponse{
		WorkspaceID: ws.ID,
		Count:       len(ws.Redirects),
		Status:      core.RedirectStatus(len(ws.Redirects)),
		Redirects:   nonNil(ws.Redirects),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// handleDashboard renders the landing page, or a workspace when
// ?workspace= names one. With API keys required the page only shows a
// notice, since its forms cannot authenticate.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var params templates.DashboardParams
	if s.cfg.Security.RequireAPIKey {
		params.APIKeyRequired = true
	} else if id := r.URL.Query().Get("workspace"); id != "" {
		ws, err := s.service.Workspace(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		params = templates.NewDashboardParams(ws)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(params).Render(r.Context(), w); err != nil {
		respondError(w, r, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uploads": s.service.UploadLimiterStatus(),
	})
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.service.CreateWorkspace(withClient(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if prefersHTML(r) {
		toDashboard(w, r, ws.ID)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"workspace_id": ws.ID})
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.service.Workspace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(ws))
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteWorkspace(withClient(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadSitemap loads the multipart "file" field as the workspace
// sitemap. An optional "host" field restricts slugs to that host.
func (s *Server) handleUploadSitemap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	file, header, err := s.formFile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	ws, err := s.service.LoadSitemap(withClient(r), id, header.Filename, r.FormValue("host"), file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if prefersHTML(r) {
		toDashboard(w, r, ws.ID)
		return
	}
	writeJSON(w, http.StatusOK, SitemapResponse{
		WorkspaceID: ws.ID,
		SlugCount:   len(ws.Slugs),
		Status:      core.SitemapStatus(len(ws.Slugs)),
		Slugs:       nonNil(ws.Slugs),
	})
}

// handleUploadRedirects loads the multipart "file" field as the redirect table.
func (s *Server) handleUploadRedirects(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	file, header, err := s.formFile(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	ws, err := s.service.LoadRedirects(withClient(r), id, header.Filename, file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if prefersHTML(r) {
		toDashboard(w, r, ws.ID)
		return
	}
	writeJSON(w, http.StatusOK, redirectsResponse(ws))
}

// handleSuggestSlugs lists slugs for destination completion.
func (s *Server) handleSuggestSlugs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slugs, err := s.service.SuggestSlugs(r.Context(), chi.URLParam(r, "id"),
		q.Get("prefix"), parseIntParam(r, "limit", defaultSuggestLimit))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slugs": nonNil(slugs)})
}

func (s *Server) handleListRedirects(w http.ResponseWriter, r *http.Request) {
	ws, err := s.service.Workspace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redirectsResponse(ws))
}

// handleBulkDestination sets one destination on every record.
func (s *Server) handleBulkDestination(w http.ResponseWriter, r *http.Request) {
	dest, err := readDestination(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ws, err := s.service.ApplyBulkDestination(withClient(r), chi.URLParam(r, "id"), dest)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.respondRedirects(w, r, ws)
}

// handleSetDestination edits the destination of the record at {index}. The
// dashboard reaches it with POST since forms cannot send PUT.
func (s *Server) handleSetDestination(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %q", core.ErrIndexOutOfRange, raw))
		return
	}

	dest, err := readDestination(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ws, err := s.service.SetDestination(withClient(r), chi.URLParam(r, "id"), index, dest)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.respondRedirects(w, r, ws)
}

// respondRedirects answers an edit with the record list, or sends a browser
// form post back to the dashboard.
func (s *Server) respondRedirects(w http.ResponseWriter, r *http.Request, ws *core.Workspace) {
	if prefersHTML(r) {
		toDashboard(w, r, ws.ID)
		return
	}
	writeJSON(w, http.StatusOK, redirectsResponse(ws))
}

// handleExport downloads the slug list or redirect table as CSV or XLSX.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := core.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	var name string
	switch chi.URLParam(r, "kind") {
	case "slugs":
		name, err = s.service.ExportSlugs(r.Context(), id, format, &buf)
	case "redirects":
		name, err = s.service.ExportRedirects(r.Context(), id, format, &buf)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// formFile returns the uploaded "file" field. The body is capped a little
// above the file size limit; the service enforces the exact limit.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errNoFile
	}
	return file, header, nil
}

// readDestination takes the destination from a JSON body, or from the
// "destination" field of a form post.
func readDestination(w http.ResponseWriter, r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseMultipartForm(maxJSONBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return "", fmt.Errorf("%w: %v", errInvalidBody, err)
		}
		return r.PostFormValue("destination"), nil
	}

	var req destinationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	return req.Destination, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// toDashboard sends a browser form post back to the workspace page.
func toDashboard(w http.ResponseWriter, r *http.Request, id string) {
	http.Redirect(w, r, "/?workspace="+id, http.StatusSeeOther)
}
