// Package jobs implements the job lifecycle: claim, tools checklist, work
// timer, signature capture and the completion gate.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/fieldops/internal/audit"
	"github.com/kiranshivaraju/fieldops/internal/store"
	"github.com/kiranshivaraju/fieldops/pkg/models"
)

const maxSignatureBytes = 512 << 10

// Service runs lifecycle operations against a Store. Every mutation is a
// single atomic UpdateJob call, and one audit event is emitted after each
// committed change.
type Service struct {
	store  store.Store
	events audit.Emitter
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(st store.Store, events audit.Emitter, opts ...Option) *Service {
	s := &Service{store: st, events: events, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams is the intake data for a new job.
type CreateParams struct {
	ServiceCategory string
	Vehicle         models.Vehicle
	Description     string
	Actor           string
}

// ClaimOptions tunes Claim.
type ClaimOptions struct {
	// DeferStart leaves the job in accepted until the first timer start.
	DeferStart bool
}

// ToolsStatus is the progress view of a job's tools checklist.
type ToolsStatus struct {
	TotalRequired        int         `json:"total_required"`
	TotalChecked         int         `json:"total_checked"`
	AllRequiredSatisfied bool        `json:"all_required_satisfied"`
	CompletedAt          *time.Time  `json:"completed_at,omitempty"`
	Tools                []ToolState `json:"tools"`
}

// ToolState is one checklist line.
type ToolState struct {
	models.ToolRequirement
	Checked bool `json:"checked"`
}

// Create stores a new pending job.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Job, error) {
	cat, err := models.ParseServiceCategory(p.ServiceCategory)
	if err != nil {
		return nil, validationf("%v", err)
	}

	now := s.now().UTC()
	if p.Vehicle.Year != 0 && (p.Vehicle.Year < 1900 || p.Vehicle.Year > now.Year()+2) {
		return nil, validationf("vehicle year %d out of range", p.Vehicle.Year)
	}

	job := &models.Job{
		ID:              uuid.New().String(),
		ServiceCategory: cat,
		Status:          models.JobStatusPending,
		Vehicle: models.Vehicle{
			Make:  strings.TrimSpace(p.Vehicle.Make),
			Model: strings.TrimSpace(p.Vehicle.Model),
			Year:  p.Vehicle.Year,
			VIN:   strings.ToUpper(strings.TrimSpace(p.Vehicle.VIN)),
		},
		Description:  strings.TrimSpace(p.Description),
		ToolsChecked: map[string]bool{},
		WorkSessions: []models.WorkSession{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.emit(ctx, models.EventJobCreated, job.ID, p.Actor, now, map[string]string{
		"service_category": string(cat),
	})
	return job, nil
}

// Get returns a job by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, s.wrapErr("get job", id, err)
	}
	return job, nil
}

// List returns a page of jobs and the total match count.
func (s *Service) List(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error) {
	jobs, total, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, total, nil
}

// Quote moves a pending job to quoted. Quoting a quoted job is a no-op.
func (s *Service) Quote(ctx context.Context, id, actor string) (*models.Job, error) {
	job, changed, err := s.mutate(ctx, "quote job", id, func(j *models.Job, now time.Time) error {
		switch j.Status {
		case models.JobStatusQuoted:
			return store.ErrNoChange
		case models.JobStatusPending:
			j.Status = models.JobStatusQuoted
			j.QuotedAt = &now
			return nil
		default:
			return invalidStatef("cannot quote a job in status %s", j.Status)
		}
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.emit(ctx, models.EventJobQuoted, id, actor, job.UpdatedAt, nil)
	}
	return job, nil
}

// WithdrawQuote moves a quoted job back to pending. Withdrawing on a pending job is a no-op.
func (s *Service) WithdrawQuote(ctx context.Context, id, actor string) (*models.Job, error) {
	job, changed, err := s.mutate(ctx, "withdraw quote", id, func(j *models.Job, _ time.Time) error {
		switch j.Status {
		case models.JobStatusPending:
			return store.ErrNoChange
		case models.JobStatusQuoted:
			j.Status = models.JobStatusPending
			j.QuotedAt = nil
			return nil
		default:
			return invalidStatef("cannot withdraw the quote of a job in status %s", j.Status)
		}
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.emit(ctx, models.EventJobQuoteWithdrawn, id, actor, job.UpdatedAt, nil)
	}
	return job, nil
}

// Claim assigns the job to a technician, freezes its tools checklist and
// moves it to in_progress (or accepted with DeferStart).
func (s *Service) Claim(ctx context.Context, id, technicianID string, opts ClaimOptions) (*models.Job, error) {
	technicianID = strings.TrimSpace(technicianID)
	if technicianID == "" {
		return nil, validationf("technician id is required")
	}

	job, changed, err := s.mutate(ctx, "claim job", id, func(j *models.Job, now time.Time) error {
		switch {
		case j.Status == models.JobStatusCompleted:
			return invalidStatef("job is already completed")
		case j.Status.IsClaimed():
			if j.AssignedTechnicianID != nil && *j.AssignedTechnicianID == technicianID {
				return store.ErrNoChange
			}
			return invalidStatef("job is already claimed by another technician")
		case !j.Status.IsPreClaim():
			return invalidStatef("cannot claim a job in status %s", j.Status)
		}

		tech := technicianID
		j.AssignedTechnicianID = &tech
		j.ClaimedAt = &now
		j.RequiredTools = ToolsFor(j.ServiceCategory)
		if opts.DeferStart {
			j.Status = models.JobStatusAccepted
		} else {
			j.Status = models.JobStatusInProgress
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.emit(ctx, models.EventJobClaimed, id, technicianID, job.UpdatedAt, map[string]string{
			"status": string(job.Status),
		})
	}
	return job, nil
}

// SetToolChecked records whether a tool has been verified. Tool ids outside
// the checklist are stored but ignored by the completion check.
func (s *Service) SetToolChecked(ctx context.Context, id, toolID string, checked bool, actor string) (*models.Job, error) {
	toolID = strings.TrimSpace(toolID)
	if toolID == "" {
		return nil, validationf("tool id is required")
	}

	job, changed, err := s.mutate(ctx, "set tool checked", id, func(j *models.Job, _ time.Time) error {
		if err := requireWorkable(j); err != nil {
			return err
		}
		if prev, ok := j.ToolsChecked[toolID]; ok && prev == checked {
			return store.ErrNoChange
		}
		if j.ToolsChecked == nil {
			j.ToolsChecked = map[string]bool{}
		}
		j.ToolsChecked[toolID] = checked
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.emit(ctx, models.EventToolChecked, id, actor, job.UpdatedAt, map[string]string{
			"tool_id": toolID,
			"checked": strconv.FormatBool(checked),
		})
	}
	return job, nil
}

// CompleteToolsCheck stamps ToolsCheckCompletedAt once every required tool is
// checked. Calling it again after success changes nothing.
func (s *Service) CompleteToolsCheck(ctx context.Context, id, actor string) (*models.Job, error) {
	job, changed, err := s.mutate(ctx, "complete tools check", id, func(j *models.Job, now time.Time) error {
		if err := requireWorkable(j); err != nil {
			return err
		}
		if j.ToolsCheckCompletedAt != nil {
			return store.ErrNoChange
		}
		if missing := missingRequiredTools(j.RequiredTools, j.ToolsChecked); len(missing) > 0 {
			return validationf("required tools not checked: %s", strings.Join(missing, ", "))
		}
		j.ToolsCheckCompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.emit(ctx, models.EventToolsCheckCompleted, id, actor, job.UpdatedAt, nil)
	}
	return job, nil
}

// ToolsStatus reports checklist progress. Before a claim freezes the
// checklist, the category's current checklist is shown.
func (s *Service) ToolsStatus(ctx context.Context, id string) (*ToolsStatus, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tools := job.RequiredTools
	if len(tools) == 0 && job.Status.IsPreClaim() {
		tools = ToolsFor(job.ServiceCategory)
	}

	st := &ToolsStatus{
		CompletedAt: job.ToolsCheckCompletedAt,
		Tools:       make([]ToolState, 0, len(tools)),
	}
	for _, t := range tools {
		checked := job.ToolsChecked[t.ID]
		st.Tools = append(st.Tools, ToolState{ToolRequirement: t, Checked: checked})
		if t.Required {
			st.TotalRequired++
			if checked {
				st.TotalChecked++
			}
		}
	}
	st.AllRequiredSatisfied = st.TotalChecked == st.TotalRequired
	return st, nil
}

// StartTimer opens a work session. Only one session may be open per job.
func (s *Service) StartTimer(ctx context.Context, id, actor string) (models.WorkSession, error) {
	var started models.WorkSession
	job, _, err := s.mutate(ctx, "start timer", id, func(j *models.Job, now time.Time) error {
		if err := requireWorkable(j); err != nil {
			return err
		}
		if j.ActiveSession() >= 0 {
			return conflictf("a work timer is already running; stop it first")
		}
		if j.Status == models.JobStatusAccepted {
			j.Status = models.JobStatusInProgress
		}
		started = models.WorkSession{Start: now}
		j.WorkSessions = append(j.WorkSessions, started)
		return nil
	})
	if err != nil {
		return models.WorkSession{}, err
	}
	s.emit(ctx, models.EventWorkTimerStarted, id, actor, job.UpdatedAt, map[string]string{
		"session": strconv.Itoa(len(job.WorkSessions)),
	})
	return started, nil
}

// StopTimer closes the open work session and returns it.
func (s *Service) StopTimer(ctx context.Context, id, actor string) (models.WorkSession, error) {
	var stopped models.WorkSession
	job, _, err := s.mutate(ctx, "stop timer", id, func(j *models.Job, now time.Time) error {
		idx := j.ActiveSession()
		if idx < 0 {
			return notFoundf("no active work session")
		}
		end := now
		if end.Before(j.WorkSessions[idx].Start) {
			end = j.WorkSessions[idx].Start
		}
		j.WorkSessions[idx].End = &end
		stopped = models.WorkSession{Start: j.WorkSessions[idx].Start, End: &end}
		return nil
	})
	if err != nil {
		return models.WorkSession{}, err
	}
	s.emit(ctx, models.EventWorkTimerStopped, id, actor, job.UpdatedAt, map[string]string{
		"minutes": strconv.FormatFloat(stopped.Duration().Minutes(), 'f', 2, 64),
	})
	return stopped, nil
}

// ActiveSession returns the open work session, or nil when the timer is stopped.
func (s *Service) ActiveSession(ctx context.Context, id string) (*models.WorkSession, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return timerStatus(job).Active, nil
}

// TotalMinutes sums closed sessions; a running session is not counted.
func (s *Service) TotalMinutes(ctx context.Context, id string) (float64, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return TotalWorked(job.WorkSessions).Minutes(), nil
}

// Timer returns the combined timer read model.
func (s *Service) Timer(ctx context.Context, id string) (TimerStatus, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return TimerStatus{}, err
	}
	return timerStatus(job), nil
}

// CaptureSignature records the customer signature, replacing any earlier
// one. Signatures are frozen once the job is completed.
func (s *Service) CaptureSignature(ctx context.Context, id, artifact, capturedBy string) (*models.Signature, error) {
	artifact = strings.TrimSpace(artifact)
	capturedBy = strings.TrimSpace(capturedBy)
	if artifact == "" {
		return nil, validationf("signature artifact is required")
	}
	if len(artifact) > maxSignatureBytes {
		return nil, validationf("signature artifact exceeds %d bytes", maxSignatureBytes)
	}
	if capturedBy == "" {
		return nil, validationf("captured_by is required")
	}

	var sig models.Signature
	job, _, err := s.mutate(ctx, "capture signature", id, func(j *models.Job, now time.Time) error {
		if j.Status == models.JobStatusCompleted {
			return invalidStatef("signature cannot change after completion")
		}
		sig = models.Signature{Artifact: artifact, CapturedAt: now, CapturedBy: capturedBy}
		j.Signature = &sig
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, models.EventSignatureCaptured, id, capturedBy, job.UpdatedAt, nil)
	return &sig, nil
}

// CompletionPreview evaluates the Completion Gate without changing anything.
func (s *Service) CompletionPreview(ctx context.Context, id string) (Decision, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return Decision{}, err
	}
	return EvaluateCompletion(job), nil
}

// RequestCompletion re-evaluates the Completion Gate under the job lock and
// completes the job only if it allows. A denial returns the unchanged job and
// the reasons with a nil error.
func (s *Service) RequestCompletion(ctx context.Context, id, actor string) (*models.Job, Decision, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, Decision{}, validationf("actor is required")
	}

	var decision Decision
	job, changed, err := s.mutate(ctx, "request completion", id, func(j *models.Job, now time.Time) error {
		if j.Status == models.JobStatusCompleted {
			return invalidStatef("job is already completed")
		}
		if !j.Status.IsClaimed() {
			return invalidStatef("job must be claimed before completion, status is %s", j.Status)
		}
		decision = EvaluateCompletion(j)
		if !decision.Allowed {
			return store.ErrNoChange
		}
		by := actor
		j.Status = models.JobStatusCompleted
		j.CompletedAt = &now
		j.CompletedBy = &by
		return nil
	})
	if err != nil {
		return nil, Decision{}, err
	}
	if changed {
		s.emit(ctx, models.EventJobCompleted, id, actor, job.UpdatedAt, map[string]string{
			"total_minutes": strconv.FormatFloat(TotalWorked(job.WorkSessions).Minutes(), 'f', 2, 64),
		})
	}
	return job, decision, nil
}

// requireWorkable rejects jobs that are not claimed or are already completed.
func requireWorkable(j *models.Job) error {
	if j.Status == models.JobStatusCompleted {
		return invalidStatef("job is already completed")
	}
	if !j.Status.IsClaimed() {
		return invalidStatef("job must be claimed first, status is %s", j.Status)
	}
	return nil
}

// mutate runs fn inside Store.UpdateJob. changed is false when fn returned
// store.ErrNoChange.
func (s *Service) mutate(ctx context.Context, op, id string, fn func(j *models.Job, now time.Time) error) (*models.Job, bool, error) {
	changed := false
	job, err := s.store.UpdateJob(ctx, id, func(j *models.Job) error {
		now := s.now().UTC()
		if err := fn(j, now); err != nil {
			return err
		}
		j.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, s.wrapErr(op, id, err)
	}
	return job, changed, nil
}

func (s *Service) wrapErr(op, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, notFoundf("job %s", id))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// emit delivers an audit event after a committed change. The mutation is
// already durable, so delivery failures are logged and swallowed.
func (s *Service) emit(ctx context.Context, typ models.EventType, jobID, actor string, at time.Time, data map[string]string) {
	if s.events == nil {
		return
	}
	ev := models.AuditEvent{Type: typ, JobID: jobID, ActorID: actor, OccurredAt: at, Data: data}
	if err := s.events.Emit(ctx, ev); err != nil {
		slog.Warn("audit event delivery failed", "event", string(typ), "job_id", jobID, "error", err)
	}
}
