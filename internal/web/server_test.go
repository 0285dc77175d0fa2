package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/RedirectMap/internal/config"
	"github.com/JonMunkholm/RedirectMap/internal/core"
	"github.com/JonMunkholm/RedirectMap/internal/export"
	"github.com/JonMunkholm/RedirectMap/internal/metrics"
	"github.com/JonMunkholm/RedirectMap/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc></url>
  <url><loc>https://example.com/pricing</loc></url>
  <url><loc>https://other.org/elsewhere</loc></url>
</urlset>`

const testRedirects = "Old Page URL,Destination Page URL,Redirect Type\n/old-pricing,pricing,301\n/legacy,,\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       5 * time.Second,
		},
		Rate:      config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100, UploadLimit: 20},
		Security:  config.SecurityConfig{EnableCSP: true},
		Workspace: config.WorkspaceConfig{TTL: time.Hour, MaxInMemory: 100, PurgeInterval: time.Hour},
	}
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	m := metrics.New()
	svc := core.NewService(store.NewMemory(cfg.Workspace.MaxInMemory, cfg.Workspace.TTL), cfg, m)
	return NewServer(svc, cfg, m)
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func uploadRequest(t *testing.T, url, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, url, body string) *http.Request {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func createWorkspace(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/workspaces", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]string](t, rec)["workspace_id"]
	require.NotEmpty(t, id)
	return id
}

func TestServer_Workflow(t *testing.T) {
	s := newTestServer(t, nil)
	id := createWorkspace(t, s)
	base := "/api/workspaces/" + id

	t.Run("Should report a workspace waiting for a sitemap", func(t *testing.T) {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, base, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[WorkspaceResponse](t, rec)
		assert.Equal(t, "Upload a sitemap first", got.Status)
		assert.Equal(t, 0, got.SlugCount)
	})

	t.Run("Should capture same-host slugs", func(t *testing.T) {
		rec := do(t, s, uploadRequest(t, base+"/sitemap", "sitemap.xml", testSitemap, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[SitemapResponse](t, rec)
		assert.Equal(t, "2 slugs captured", got.Status)
		assert.Equal(t, []string{"/", "/pricing"}, got.Slugs)
	})

	t.Run("Should load and normalize redirects", func(t *testing.T) {
		rec := do(t, s, uploadRequest(t, base+"/redirects", "redirects.csv", testRedirects, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[RedirectsResponse](t, rec)
		assert.Equal(t, "Loaded 2 redirects", got.Status)
		assert.Equal(t, []core.RedirectRecord{
			{Old: "/old-pricing", Destination: "/pricing", Type: "301"},
			{Old: "/legacy", Destination: "", Type: "301"},
		}, got.Redirects)
	})

	t.Run("Should set one destination", func(t *testing.T) {
		rec := do(t, s, jsonRequest(http.MethodPut, base+"/redirects/1", `{"destination":"https://example.com/"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[RedirectsResponse](t, rec)
		assert.Equal(t, "/", got.Redirects[1].Destination)
		assert.Equal(t, "/pricing", got.Redirects[0].Destination)
	})

	t.Run("Should export redirects as CSV", func(t *testing.T) {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, base+"/export/redirects", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, `attachment; filename="formatted-redirects.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "Old Page URL,Destination Page URL,Redirect Type\n/old-pricing,/pricing,301\n/legacy,/,301", rec.Body.String())
	})

	t.Run("Should export slugs as XLSX", func(t *testing.T) {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, base+"/export/slugs?format=xlsx", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="sitemap-slugs.xlsx"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
	})

	t.Run("Should apply a bulk destination", func(t *testing.T) {
		rec := do(t, s, jsonRequest(http.MethodPost, base+"/redirects/bulk", `{"destination":"pricing"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		for _, r := range decode[RedirectsResponse](t, rec).Redirects {
			assert.Equal(t, "/pricing", r.Destination)
		}
	})

	t.Run("Should suggest slugs by prefix", func(t *testing.T) {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, base+"/slugs?prefix=pri", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"/pricing"}, decode[map[string][]string](t, rec)["slugs"])
	})

	t.Run("Should delete the workspace", func(t *testing.T) {
		rec := do(t, s, httptest.NewRequest(http.MethodDelete, base, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, s, httptest.NewRequest(http.MethodGet, base, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Errors(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Upload.MaxFileSize = 64 })
	id := createWorkspace(t, s)
	base := "/api/workspaces/" + id

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{
			name:   "redirects before sitemap",
			req:    uploadRequest(t, base+"/redirects", "r.csv", "Old,Redirect\n/a,301", nil),
			status: http.StatusConflict,
			code:   "RDR001",
		},
		{
			name:   "unknown workspace",
			req:    httptest.NewRequest(http.MethodGet, "/api/workspaces/not-a-uuid", nil),
			status: http.StatusNotFound,
			code:   "WS001",
		},
		{
			name:   "nothing to export",
			req:    httptest.NewRequest(http.MethodGet, base+"/export/slugs", nil),
			status: http.StatusConflict,
			code:   "EXP001",
		},
		{
			name:   "unsupported export format",
			req:    httptest.NewRequest(http.MethodGet, base+"/export/slugs?format=pdf", nil),
			status: http.StatusBadRequest,
			code:   "EXP002",
		},
		{
			name:   "file too large",
			req:    uploadRequest(t, base+"/sitemap", "big.xml", strings.Repeat("x", 200), nil),
			status: http.StatusRequestEntityTooLarge,
			code:   "FILE001",
		},
		{
			name:   "no file",
			req:    uploadRequest(t, base+"/sitemap", "", "", map[string]string{"host": "a.com"}),
			status: http.StatusBadRequest,
			code:   "FILE004",
		},
		{
			name:   "malformed sitemap",
			req:    uploadRequest(t, base+"/sitemap", "s.xml", "<urlset><url>", nil),
			status: http.StatusUnprocessableEntity,
			code:   "SMAP001",
		},
		{
			name:   "bad redirect index",
			req:    jsonRequest(http.MethodPut, base+"/redirects/abc", `{"destination":"/x"}`),
			status: http.StatusBadRequest,
			code:   "RDR004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestServer_ExplicitHost(t *testing.T) {
	s := newTestServer(t, nil)
	id := createWorkspace(t, s)

	rec := do(t, s, uploadRequest(t, "/api/workspaces/"+id+"/sitemap", "s.xml", testSitemap,
		map[string]string{"host": "other.org"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"/elsewhere"}, decode[SitemapResponse](t, rec).Slugs)
}

func TestServer_Dashboard(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("Should render the landing page", func(t *testing.T) {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "New workspace")
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	})

	t.Run("Should preview slugs with a more marker", func(t *testing.T) {
		id := createWorkspace(t, s)
		var locs strings.Builder
		locs.WriteString("<urlset>")
		for i := 0; i < 26; i++ {
			locs.WriteString("<url><loc>https://a.com/p" + string(rune('a'+i)) + "</loc></url>")
		}
		locs.WriteString("</urlset>")
		rec := do(t, s, uploadRequest(t, "/api/workspaces/"+id+"/sitemap", "s.xml", locs.String(), nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = do(t, s, httptest.NewRequest(http.MethodGet, "/?workspace="+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "26 slugs captured")
		assert.Contains(t, body, "+6 more")
		assert.Contains(t, body, "<li>/pa</li>")
		assert.NotContains(t, body, "<li>/pu</li>")
		assert.Contains(t, body, `<option value="/pu">`)
		assert.Contains(t, body, "Upload redirects")
	})

	t.Run("Should render an alert for an unknown workspace", func(t *testing.T) {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/?workspace=missing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "WS001")
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})

	t.Run("Should redirect browser form posts back to the dashboard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/workspaces", nil)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		rec := do(t, s, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/?workspace="))
	})
}

func TestServer_RateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 2
	})

	for i := 0; i < 2; i++ {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/workspaces/x", nil)
	rec := do(t, s, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec).Code)
}

func TestServer_APIKey(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/workspaces", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = do(t, s, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]string](t, rec)["workspace_id"]

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/?workspace="+id, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "requires an API key")
	assert.NotContains(t, rec.Body.String(), "<form")
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, nil)
	id := createWorkspace(t, s)
	do(t, s, uploadRequest(t, "/api/workspaces/"+id+"/sitemap", "s.xml", testSitemap, nil))

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "redirectmap_sitemap_loads_total 1")
	assert.Contains(t, body, `route="/api/workspaces/{id}/sitemap"`)
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req
}

func TestServer_DashboardEdits(t *testing.T) {
	s := newTestServer(t, nil)
	id := createWorkspace(t, s)
	base := "/api/workspaces/" + id

	rec := do(t, s, uploadRequest(t, base+"/sitemap", "sitemap.xml", testSitemap, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, s, uploadRequest(t, base+"/redirects", "redirects.csv", testRedirects, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t.Run("Should render edit forms", func(t *testing.T) {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/?workspace="+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `action="`+base+`/redirects/bulk"`)
		assert.Contains(t, body, `action="`+base+`/redirects/1"`)
		assert.Contains(t, body, `value="/pricing" list="slug-options"`)
		assert.Contains(t, body, `<datalist id="slug-options">`)
	})

	t.Run("Should apply a bulk destination from a form", func(t *testing.T) {
		rec := do(t, s, formRequest(base+"/redirects/bulk", url.Values{"destination": {"pricing"}}))
		require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
		assert.Equal(t, "/?workspace="+id, rec.Header().Get("Location"))

		rec = do(t, s, httptest.NewRequest(http.MethodGet, base+"/redirects", nil))
		got := decode[RedirectsResponse](t, rec)
		for _, r := range got.Redirects {
			assert.Equal(t, "/pricing", r.Destination)
		}
	})

	t.Run("Should set one destination from a form", func(t *testing.T) {
		rec := do(t, s, formRequest(base+"/redirects/1", url.Values{"destination": {"https://example.com/"}}))
		require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

		rec = do(t, s, httptest.NewRequest(http.MethodGet, base+"/redirects", nil))
		got := decode[RedirectsResponse](t, rec)
		require.Len(t, got.Redirects, 2)
		assert.Equal(t, "/pricing", got.Redirects[0].Destination)
		assert.Equal(t, "/", got.Redirects[1].Destination)
	})

	t.Run("Should report a bad index from a form", func(t *testing.T) {
		rec := do(t, s, formRequest(base+"/redirects/9", url.Values{"destination": {"/"}}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "RDR004")
	})
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Status  string                   `json:"status"`
		Uploads core.UploadLimiterStatus `json:"uploads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, core.UploadLimiterStatus{Active: 0, Available: 2, MaxConcurrent: 2}, got.Uploads)
}
