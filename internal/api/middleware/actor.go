package middleware

import (
	"net/http"
	"strings"

	"github.com/kiranshivaraju/fieldops/internal/api/response"
)

// ActorHeader carries the identity of whoever performs a mutating request.
// It is attribution for the audit trail, not authentication.
const ActorHeader = "X-Technician-ID"

const maxActorIDLen = 128

// Actor rejects requests without an ActorHeader and stores its value in the
// request context.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(ActorHeader))
		if id == "" {
			response.Error(w, http.StatusBadRequest,
				"VALIDATION_ERROR", "Missing "+ActorHeader+" header", nil)
			return
		}
		if len(id) > maxActorIDLen {
			response.Error(w, http.StatusBadRequest,
				"VALIDATION_ERROR", ActorHeader+" header is too long", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(SetActorID(r.Context(), id)))
	})
}
