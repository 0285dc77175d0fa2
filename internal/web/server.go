// Package web serves the redirect workspace dashboard and JSON API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/RedirectMap/internal/config"
	"github.com/JonMunkholm/RedirectMap/internal/core"
	"github.com/JonMunkholm/RedirectMap/internal/metrics"
	"github.com/JonMunkholm/RedirectMap/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// contentSecurityPolicy allows only same-origin resources plus inline styles.
const contentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'"

// Server is the HTTP front end of a core.Service.
type Server struct {
	service *core.Service
	cfg     *config.Config
	metrics *metrics.Metrics
	router  *chi.Mux
	server  *http.Server
}

// NewServer builds the router. A nil m gets a private metrics registry.
func NewServer(service *core.Service, cfg *config.Config, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New()
	}
	s := &Server{
		service: service,
		cfg:     cfg,
		metrics: m,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	r := s.router
	r.Use(chimw.RequestID)
	r.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(chimw.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	r.Use(securityHeaders(s.cfg.Security.EnableCSP))
	if s.cfg.Rate.Enabled {
		r.Use(s.rateLimit("global", s.cfg.Rate.RequestsPerMinute))
	}
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/workspaces", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		r.Post("/", s.handleCreateWorkspace)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetWorkspace)
			r.Delete("/", s.handleDeleteWorkspace)

			r.Get("/slugs", s.handleSuggestSlugs)
			r.Get("/redirects", s.handleListRedirects)
			r.Post("/redirects/bulk", s.handleBulkDestination)
			r.Put("/redirects/{index}", s.handleSetDestination)
			r.Post("/redirects/{index}", s.handleSetDestination)
			r.Get("/export/{kind}", s.handleExport)

			// File loads parse whole documents, so they get their own budget.
			r.Group(func(r chi.Router) {
				if s.cfg.Rate.Enabled {
					r.Use(s.rateLimit("upload", s.cfg.Rate.UploadLimit))
				}
				r.Post("/sitemap", s.handleUploadSitemap)
				r.Post("/redirects", s.handleUploadRedirects)
			})
		})
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
