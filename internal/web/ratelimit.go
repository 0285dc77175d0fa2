package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/RedirectMap/internal/web/middleware"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// rateLimit allows perMinute requests per client IP. Each call gets its own
// store, so the upload limit counts separately from the global one.
func (s *Server) rateLimit(name string, perMinute int) func(http.Handler) http.Handler {
	rate := limiter.Rate{Period: time.Minute, Limit: int64(perMinute)}
	instance := limiter.New(memory.NewStore(), rate)

	mw := stdlib.NewMiddleware(instance,
		stdlib.WithKeyGetter(func(r *http.Request) string {
			return name + ":" + middleware.ClientIP(r)
		}),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			s.metrics.RateLimited(name)
			respondError(w, r, errRateLimited)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			respondError(w, r, err)
		}),
	)
	return mw.Handler
}
