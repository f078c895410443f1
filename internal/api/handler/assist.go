package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/fieldops/internal/ai"
	"github.com/kiranshivaraju/fieldops/internal/api/response"
	"github.com/kiranshivaraju/fieldops/internal/diagnostics"
)

// Assistant answers technician questions over a diagnostic context.
type Assistant interface {
	Assist(ctx context.Context, params ai.AssistParams) (*ai.AssistResult, error)
}

// Assist serves POST /api/v1/jobs/{jobID}/assist. The vehicle comes from the
// job; codes, symptoms and the question come from the body.
type Assist struct {
	jobs      JobService
	assistant Assistant
}

func NewAssist(jobs JobService, assistant Assistant) *Assist {
	return &Assist{jobs: jobs, assistant: assistant}
}

type assistRequest struct {
	Codes    []string `json:"codes" validate:"max=50,dive,max=16"`
	Symptoms []string `json:"symptoms" validate:"max=50,dive,max=500"`
	Question string   `json:"question" validate:"max=2000"`
}

func (h *Assist) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req assistRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	job, err := h.jobs.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.assistant.Assist(r.Context(), ai.AssistParams{
		Vehicle: diagnostics.VehicleInput{
			Make:  job.Vehicle.Make,
			Model: job.Vehicle.Model,
			Year:  job.Vehicle.Year,
			VIN:   job.Vehicle.VIN,
		},
		Codes:    req.Codes,
		Symptoms: req.Symptoms,
		Question: req.Question,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, result)
}
