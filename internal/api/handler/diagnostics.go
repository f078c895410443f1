package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/fieldops/internal/api/response"
	"github.com/kiranshivaraju/fieldops/internal/diagnostics"
)

// Diagnostics serves the knowledge lookups. None of them touch a job.
type Diagnostics struct {
	kb      *diagnostics.KnowledgeBase
	builder *diagnostics.Builder
}

func NewDiagnostics(kb *diagnostics.KnowledgeBase) *Diagnostics {
	return &Diagnostics{kb: kb, builder: diagnostics.NewBuilder(kb)}
}

type contextRequest struct {
	Vehicle  vehicleBody `json:"vehicle"`
	Codes    []string    `json:"codes" validate:"max=50,dive,max=16"`
	Symptoms []string    `json:"symptoms" validate:"max=50,dive,max=500"`
}

// Context handles POST /api/v1/diagnostics/context.
func (h *Diagnostics) Context(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	dc := h.builder.Build(diagnostics.VehicleInput{
		Make:  req.Vehicle.Make,
		Model: req.Vehicle.Model,
		Year:  req.Vehicle.Year,
		VIN:   req.Vehicle.VIN,
	}, req.Codes, req.Symptoms)
	response.JSON(w, dc)
}

type codeResponse struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
	Known       bool   `json:"known"`
}

// Code handles GET /api/v1/diagnostics/codes/{code}. Unknown codes get the
// fallback explanation rather than a 404.
func (h *Diagnostics) Code(w http.ResponseWriter, r *http.Request) {
	code := diagnostics.NormalizeCode(chi.URLParam(r, "code"))
	_, known := h.kb.TroubleCode(code)
	response.JSON(w, codeResponse{
		Code:        code,
		Explanation: h.builder.Classifier().ExplainCode(code),
		Known:       known,
	})
}

type vehicleResponse struct {
	diagnostics.VINResult
	Engine *diagnostics.EngineKnowledge `json:"engine,omitempty"`
}

// Vehicle handles GET /api/v1/vehicles/{vin}.
func (h *Diagnostics) Vehicle(w http.ResponseWriter, r *http.Request) {
	res, err := diagnostics.DecodeVIN(chi.URLParam(r, "vin"))
	if err != nil {
		if errors.Is(err, diagnostics.ErrInvalidVIN) {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"VIN must be 17 characters from the VIN alphabet", nil)
			return
		}
		writeError(w, r, err)
		return
	}

	out := vehicleResponse{VINResult: res}
	if ek, ok := h.kb.Engine(res.EngineFamily); ok {
		out.Engine = &ek
	}
	response.JSON(w, out)
}
