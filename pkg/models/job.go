// Package models contains shared data models used across the FieldOps codebase.
package models

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusQuoted     JobStatus = "quoted"
	JobStatusAccepted   JobStatus = "accepted"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
)

// ParseJobStatus validates a raw status string.
func ParseJobStatus(s string) (JobStatus, error) {
	switch st := JobStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case JobStatusPending, JobStatusQuoted, JobStatusAccepted, JobStatusInProgress, JobStatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown job status %q", s)
	}
}

// IsClaimed reports whether a technician owns the job and work may be in flight.
func (s JobStatus) IsClaimed() bool {
	return s == JobStatusAccepted || s == JobStatusInProgress
}

// IsPreClaim reports whether the job is still open for a technician to claim.
func (s JobStatus) IsPreClaim() bool {
	return s == JobStatusPending || s == JobStatusQuoted
}

// ServiceCategory is the closed set of service types a job can be booked for.
type ServiceCategory string

const (
	ServiceOilChange         ServiceCategory = "oil_change"
	ServiceBrake             ServiceCategory = "brake_service"
	ServiceTire              ServiceCategory = "tire_service"
	ServiceBattery           ServiceCategory = "battery_service"
	ServiceEngineDiagnostic  ServiceCategory = "engine_diagnostic"
	ServiceTransmission      ServiceCategory = "transmission"
	ServiceAC                ServiceCategory = "ac_service"
	ServiceGeneralRepair     ServiceCategory = "general_repair"
	ServiceEmergencyRoadside ServiceCategory = "emergency_roadside"
)

// ServiceCategories lists every ServiceCategory in display order.
var ServiceCategories = []ServiceCategory{
	ServiceOilChange,
	ServiceBrake,
	ServiceTire,
	ServiceBattery,
	ServiceEngineDiagnostic,
	ServiceTransmission,
	ServiceAC,
	ServiceGeneralRepair,
	ServiceEmergencyRoadside,
}

// ParseServiceCategory accepts both snake_case and kebab-case spellings.
func ParseServiceCategory(s string) (ServiceCategory, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, c := range ServiceCategories {
		if string(c) == norm {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown service category %q", s)
}

// ToolCategory groups tools on the checklist.
type ToolCategory string

const (
	ToolCategoryHandTool      ToolCategory = "hand_tool"
	ToolCategoryPowerTool     ToolCategory = "power_tool"
	ToolCategoryDiagnostic    ToolCategory = "diagnostic"
	ToolCategorySafety        ToolCategory = "safety"
	ToolCategoryLifting       ToolCategory = "lifting"
	ToolCategoryFluidHandling ToolCategory = "fluid_handling"
	ToolCategoryElectrical    ToolCategory = "electrical"
)

// ToolRequirement is one entry on a job's tools checklist.
type ToolRequirement struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Required bool         `json:"required"`
	Category ToolCategory `json:"category"`
}

// WorkSession is one labor interval. End is nil while the timer is running.
type WorkSession struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// Open reports whether the session is still running.
func (s WorkSession) Open() bool { return s.End == nil }

// Duration returns end-start for a closed session and zero for an open one.
func (s WorkSession) Duration() time.Duration {
	if s.End == nil {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Signature is the customer's sign-off on the work performed.
type Signature struct {
	Artifact   string    `json:"artifact"`
	CapturedAt time.Time `json:"captured_at"`
	CapturedBy string    `json:"captured_by"`
}

// Vehicle is the vehicle information entered when the job was booked.
type Vehicle struct {
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
	Year  int    `json:"year,omitempty"`
	VIN   string `json:"vin,omitempty"`
}

// Job is a single on-site service engagement.
type Job struct {
	ID                    string            `json:"id"`
	ServiceCategory       ServiceCategory   `json:"service_category"`
	Status                JobStatus         `json:"status"`
	Vehicle               Vehicle           `json:"vehicle"`
	Description           string            `json:"description,omitempty"`
	AssignedTechnicianID  *string           `json:"assigned_technician_id,omitempty"`
	RequiredTools         []ToolRequirement `json:"required_tools,omitempty"`
	ToolsChecked          map[string]bool   `json:"tools_checked"`
	ToolsCheckCompletedAt *time.Time        `json:"tools_check_completed_at,omitempty"`
	WorkSessions          []WorkSession     `json:"work_sessions"`
	Signature             *Signature        `json:"signature,omitempty"`
	QuotedAt              *time.Time        `json:"quoted_at,omitempty"`
	ClaimedAt             *time.Time        `json:"claimed_at,omitempty"`
	CompletedAt           *time.Time        `json:"completed_at,omitempty"`
	CompletedBy           *string           `json:"completed_by,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// ActiveSession returns the index of the open work session, or -1.
func (j *Job) ActiveSession() int {
	for i := len(j.WorkSessions) - 1; i >= 0; i-- {
		if j.WorkSessions[i].Open() {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	c.AssignedTechnicianID = clonePtr(j.AssignedTechnicianID)
	c.ToolsCheckCompletedAt = clonePtr(j.ToolsCheckCompletedAt)
	c.QuotedAt = clonePtr(j.QuotedAt)
	c.ClaimedAt = clonePtr(j.ClaimedAt)
	c.CompletedAt = clonePtr(j.CompletedAt)
	c.CompletedBy = clonePtr(j.CompletedBy)
	if j.RequiredTools != nil {
		c.RequiredTools = append([]ToolRequirement(nil), j.RequiredTools...)
	}
	c.ToolsChecked = make(map[string]bool, len(j.ToolsChecked))
	for k, v := range j.ToolsChecked {
		c.ToolsChecked[k] = v
	}
	c.WorkSessions = make([]WorkSession, len(j.WorkSessions))
	for i, s := range j.WorkSessions {
		c.WorkSessions[i] = WorkSession{Start: s.Start, End: clonePtr(s.End)}
	}
	if j.Signature != nil {
		sig := *j.Signature
		c.Signature = &sig
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
