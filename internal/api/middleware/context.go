package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const actorIDKey contextKey = "actor_id"

// SetActorID stores the acting technician or dispatcher id on ctx.
func SetActorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorIDKey, id)
}

// GetActorID returns the id set by the Actor middleware.
func GetActorID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(actorIDKey).(string)
	return id, ok && id != ""
}
