package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/devsergyo/sales-commissions/api/responses"
	pkgerrors "github.com/devsergyo/sales-commissions/pkg/errors"
	"github.com/devsergyo/sales-commissions/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope. http.ErrAbortHandler is
// re-raised so net/http can drop the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				ctx := r.Context()
				err := fmt.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic":        fmt.Sprint(rec),
						"panic_stack":  string(debug.Stack()),
						"request_id":   RequestIDFrom(ctx),
						"request_path": r.URL.Path,
					})
					logg.Error(ctx, "http.panic", err)
				}
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected server error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
