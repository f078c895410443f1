package models

import "time"

// EventType names an audit event.
type EventType string

const (
	EventJobCreated          EventType = "job_created"
	EventJobQuoted           EventType = "job_quoted"
	EventJobQuoteWithdrawn   EventType = "job_quote_withdrawn"
	EventJobClaimed          EventType = "job_claimed"
	EventToolChecked         EventType = "tool_checked"
	EventToolsCheckCompleted EventType = "tools_check_completed"
	EventWorkTimerStarted    EventType = "work_timer_started"
	EventWorkTimerStopped    EventType = "work_timer_stopped"
	EventSignatureCaptured   EventType = "signature_captured"
	EventJobCompleted        EventType = "job_completed"
)

// AuditEvent records one committed state change on a job.
type AuditEvent struct {
	Type       EventType         `json:"type"`
	JobID      string            `json:"job_id"`
	ActorID    string            `json:"actor_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}
