package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/fieldops/internal/api/handler"
	mw "github.com/kiranshivaraju/fieldops/internal/api/middleware"
	"github.com/kiranshivaraju/fieldops/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc
	Jobs          *handler.Jobs
	Diagnostics   *handler.Diagnostics
	Assist        http.Handler
}

// NewRouter builds the Chi router with middleware stack and all routes.
// Reads are open; every mutating route needs an actor and is rate limited.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	if d := deps.Diagnostics; d != nil {
		r.Post("/api/v1/diagnostics/context", d.Context)
		r.Get("/api/v1/diagnostics/codes/{code}", d.Code)
		r.Get("/api/v1/vehicles/{vin}", d.Vehicle)
	}

	if j := deps.Jobs; j != nil {
		r.Route("/api/v1/jobs", func(r chi.Router) {
			r.Get("/", j.List)
			r.Get("/{jobID}", j.Get)
			r.Get("/{jobID}/tools", j.Tools)
			r.Get("/{jobID}/timer", j.Timer)
			r.Get("/{jobID}/completion", j.Completion)

			r.Group(func(r chi.Router) {
				r.Use(mw.Actor)
				r.Use(deps.RateLimit.Limit)

				r.Post("/", j.Create)
				r.Post("/{jobID}/quote", j.Quote)
				r.Delete("/{jobID}/quote", j.WithdrawQuote)
				r.Post("/{jobID}/claim", j.Claim)
				r.Put("/{jobID}/tools/{toolID}", j.SetTool)
				r.Post("/{jobID}/tools/complete", j.CompleteTools)
				r.Post("/{jobID}/timer/start", j.StartTimer)
				r.Post("/{jobID}/timer/stop", j.StopTimer)
				r.Put("/{jobID}/signature", j.Signature)
				r.Post("/{jobID}/complete", j.Complete)
				if deps.Assist != nil {
					r.Method(http.MethodPost, "/{jobID}/assist", deps.Assist)
				}
			})
		})
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
