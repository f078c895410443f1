package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/kiranshivaraju/fieldops/internal/api/response"
)

// Recovery turns a handler panic into a 500 envelope. http.ErrAbortHandler
// is re-raised untouched.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			attrs := []any{
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			}
			if actor := r.Header.Get(ActorHeader); actor != "" {
				attrs = append(attrs, "actor_id", actor)
			}
			slog.Error("handler panic", attrs...)

			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An unexpected error occurred", nil)
		}()
		next.ServeHTTP(w, r)
	})
}
