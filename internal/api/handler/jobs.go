package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/fieldops/internal/api/response"
	"github.com/kiranshivaraju/fieldops/internal/jobs"
	"github.com/kiranshivaraju/fieldops/internal/store"
	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// JobService is the job lifecycle surface the handlers depend on.
type JobService interface {
	Create(ctx context.Context, p jobs.CreateParams) (*models.Job, error)
	Get(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error)
	Quote(ctx context.Context, id, actor string) (*models.Job, error)
	WithdrawQuote(ctx context.Context, id, actor string) (*models.Job, error)
	Claim(ctx context.Context, id, technicianID string, opts jobs.ClaimOptions) (*models.Job, error)
	SetToolChecked(ctx context.Context, id, toolID string, checked bool, actor string) (*models.Job, error)
	CompleteToolsCheck(ctx context.Context, id, actor string) (*models.Job, error)
	ToolsStatus(ctx context.Context, id string) (*jobs.ToolsStatus, error)
	StartTimer(ctx context.Context, id, actor string) (models.WorkSession, error)
	StopTimer(ctx context.Context, id, actor string) (models.WorkSession, error)
	Timer(ctx context.Context, id string) (jobs.TimerStatus, error)
	CaptureSignature(ctx context.Context, id, artifact, capturedBy string) (*models.Signature, error)
	CompletionPreview(ctx context.Context, id string) (jobs.Decision, error)
	RequestCompletion(ctx context.Context, id, actor string) (*models.Job, jobs.Decision, error)
}

// Jobs serves the /api/v1/jobs routes.
type Jobs struct {
	svc JobService
}

func NewJobs(svc JobService) *Jobs {
	return &Jobs{svc: svc}
}

type vehicleBody struct {
	Make  string `json:"make" validate:"max=64"`
	Model string `json:"model" validate:"max=64"`
	Year  int    `json:"year" validate:"omitempty,min=1900"`
	VIN   string `json:"vin" validate:"omitempty,max=32"`
}

type createJobRequest struct {
	ServiceCategory string      `json:"service_category" validate:"required"`
	Vehicle         vehicleBody `json:"vehicle"`
	Description     string      `json:"description" validate:"max=4000"`
}

// Create handles POST /api/v1/jobs.
func (h *Jobs) Create(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	job, err := h.svc.Create(r.Context(), jobs.CreateParams{
		ServiceCategory: req.ServiceCategory,
		Vehicle: models.Vehicle{
			Make:  req.Vehicle.Make,
			Model: req.Vehicle.Model,
			Year:  req.Vehicle.Year,
			VIN:   req.Vehicle.VIN,
		},
		Description: req.Description,
		Actor:       actorID(r),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, job)
}

// List handles GET /api/v1/jobs.
func (h *Jobs) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.JobFilter{TechnicianID: q.Get("technician_id")}

	if raw := q.Get("status"); raw != "" {
		st, err := models.ParseJobStatus(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		filter.Status = st
	}
	var ok bool
	if filter.Page, ok = queryInt(w, q.Get("page"), "page", 1); !ok {
		return
	}
	if filter.Limit, ok = queryInt(w, q.Get("limit"), "limit", 20); !ok {
		return
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	list, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Collection(w, list, response.Paginate(filter.Page, filter.Limit, total))
}

func queryInt(w http.ResponseWriter, raw, name string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be a positive integer", nil)
		return 0, false
	}
	return n, true
}

// Get handles GET /api/v1/jobs/{jobID}.
func (h *Jobs) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, job)
}

// Quote handles POST /api/v1/jobs/{jobID}/quote.
func (h *Jobs) Quote(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Quote(r.Context(), chi.URLParam(r, "jobID"), actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, job)
}

// WithdrawQuote handles DELETE /api/v1/jobs/{jobID}/quote.
func (h *Jobs) WithdrawQuote(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.WithdrawQuote(r.Context(), chi.URLParam(r, "jobID"), actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, job)
}

type claimRequest struct {
	DeferStart bool `json:"defer_start"`
}

// Claim handles POST /api/v1/jobs/{jobID}/claim. The actor becomes the
// assigned technician.
func (h *Jobs) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	job, err := h.svc.Claim(r.Context(), chi.URLParam(r, "jobID"), actorID(r),
		jobs.ClaimOptions{DeferStart: req.DeferStart})
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, job)
}

// Tools handles GET /api/v1/jobs/{jobID}/tools.
func (h *Jobs) Tools(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.ToolsStatus(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, status)
}

type setToolRequest struct {
	Checked *bool `json:"checked" validate:"required"`
}

// SetTool handles PUT /api/v1/jobs/{jobID}/tools/{toolID}.
func (h *Jobs) SetTool(w http.ResponseWriter, r *http.Request) {
	var req setToolRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	id := chi.URLParam(r, "jobID")
	if _, err := h.svc.SetToolChecked(r.Context(), id, chi.URLParam(r, "toolID"), *req.Checked, actorID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeTools(w, r, id)
}

// CompleteTools handles POST /api/v1/jobs/{jobID}/tools/complete.
func (h *Jobs) CompleteTools(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	if _, err := h.svc.CompleteToolsCheck(r.Context(), id, actorID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeTools(w, r, id)
}

func (h *Jobs) writeTools(w http.ResponseWriter, r *http.Request, id string) {
	status, err := h.svc.ToolsStatus(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, status)
}

// Timer handles GET /api/v1/jobs/{jobID}/timer.
func (h *Jobs) Timer(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Timer(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, status)
}

// StartTimer handles POST /api/v1/jobs/{jobID}/timer/start.
func (h *Jobs) StartTimer(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.StartTimer(r.Context(), chi.URLParam(r, "jobID"), actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, session)
}

// StopTimer handles POST /api/v1/jobs/{jobID}/timer/stop.
func (h *Jobs) StopTimer(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.StopTimer(r.Context(), chi.URLParam(r, "jobID"), actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, session)
}

type signatureRequest struct {
	Artifact   string `json:"artifact" validate:"required"`
	CapturedBy string `json:"captured_by" validate:"max=128"`
}

// Signature handles PUT /api/v1/jobs/{jobID}/signature. captured_by defaults
// to the actor.
func (h *Jobs) Signature(w http.ResponseWriter, r *http.Request) {
	var req signatureRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	by := req.CapturedBy
	if by == "" {
		by = actorID(r)
	}
	sig, err := h.svc.CaptureSignature(r.Context(), chi.URLParam(r, "jobID"), req.Artifact, by)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, sig)
}

// Completion handles GET /api/v1/jobs/{jobID}/completion.
func (h *Jobs) Completion(w http.ResponseWriter, r *http.Request) {
	decision, err := h.svc.CompletionPreview(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, decision)
}

type completeResponse struct {
	Completed bool                `json:"completed"`
	Reasons   []jobs.DenialReason `json:"reasons"`
	Job       *models.Job         `json:"job"`
}

// Complete handles POST /api/v1/jobs/{jobID}/complete. A gate denial is a
// 200 with completed=false and the unmet reasons.
func (h *Jobs) Complete(w http.ResponseWriter, r *http.Request) {
	job, decision, err := h.svc.RequestCompletion(r.Context(), chi.URLParam(r, "jobID"), actorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, completeResponse{
		Completed: decision.Allowed,
		Reasons:   decision.Reasons,
		Job:       job,
	})
}
