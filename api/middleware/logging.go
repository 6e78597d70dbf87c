package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/devsergyo/sales-commissions/pkg/logger"
)

// quietPaths are polled by probes and scrapers; they log at debug level.
var quietPaths = []string{"/health/", "/metrics"}

// Logging emits one "http.request" entry per request once the handler returns.
// Server errors log at error level, client errors at warn.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusOrOK()
			fields := map[string]any{
				"status":      status,
				"bytes":       rec.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					fields["route"] = pattern
				}
			}
			ctx = logg.WithFields(ctx, fields)

			switch {
			case status >= http.StatusInternalServerError:
				logg.Error(ctx, "http.request", nil)
			case status >= http.StatusBadRequest:
				logg.Warn(ctx, "http.request")
			case isQuietPath(r.URL.Path):
				logg.Debug(ctx, "http.request")
			default:
				logg.Info(ctx, "http.request")
			}
		})
	}
}

func isQuietPath(path string) bool {
	for _, prefix := range quietPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
