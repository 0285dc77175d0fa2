package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/RedirectMap/internal/core"
	"github.com/JonMunkholm/RedirectMap/internal/web/middleware"
)

// withClient tags the request context with client IP and user agent so
// service log lines can name who loaded a file.
func withClient(r *http.Request) context.Context {
	return core.ContextWithClient(r.Context(), middleware.ClientIP(r), r.UserAgent())
}
