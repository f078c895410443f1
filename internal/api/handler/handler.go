// Package handler holds the HTTP handlers for the FieldOps API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kiranshivaraju/fieldops/internal/ai"
	mw "github.com/kiranshivaraju/fieldops/internal/api/middleware"
	"github.com/kiranshivaraju/fieldops/internal/api/response"
	"github.com/kiranshivaraju/fieldops/internal/jobs"
)

// maxBodyBytes bounds request bodies; a signature artifact is the largest payload.
const maxBodyBytes = 1 << 20

var validate = validator.New()

// decodeJSON reads a JSON body into dst and runs its validate tags.
// An empty body is accepted when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", nil)
			return false
		}
	}
	if err := validate.Struct(dst); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Request failed validation", validationDetails(err))
		return false
	}
	return true
}

// validationDetails lists each failing field as "field: tag".
func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		details = append(details, fmt.Sprintf("%s: %s", field, fe.Tag()))
	}
	return details
}

// writeError maps service errors to HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, jobs.ErrValidation):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, jobs.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, jobs.ErrConflict):
		response.Error(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, jobs.ErrInvalidState):
		response.Error(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
	case errors.Is(err, ai.ErrEmptyRequest):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"Provide a question, a VIN, trouble codes or symptoms", nil)
	case errors.Is(err, ai.ErrInferenceTimeout):
		response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
			"The assistant took too long and was cancelled", nil)
	case errors.Is(err, ai.ErrProviderUnavailable), errors.Is(err, ai.ErrInvalidResponse):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
			"The assistant is not available", nil)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}

func actorID(r *http.Request) string {
	id, _ := mw.GetActorID(r)
	return id
}
