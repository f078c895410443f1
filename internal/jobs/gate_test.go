package jobs

import (
	"testing"
	"time"

	"github.com/kiranshivaraju/fieldops/pkg/models"
	"github.com/stretchr/testify/assert"
)

func closedSession(start time.Time, d time.Duration) models.WorkSession {
	end := start.Add(d)
	return models.WorkSession{Start: start, End: &end}
}

func TestEvaluateCompletion(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	done := t0.Add(time.Hour)
	sig := &models.Signature{Artifact: "data:image/png;base64,AAAA", CapturedAt: done, CapturedBy: "customer"}

	tests := []struct {
		name    string
		job     models.Job
		allowed bool
		reasons []DenialReason
	}{
		{
			name:    "fresh claimed job fails every check except timer",
			job:     models.Job{Status: models.JobStatusInProgress},
			reasons: []DenialReason{ReasonNoWorkLogged, ReasonToolsIncomplete, ReasonSignatureMissing},
		},
		{
			name: "open session is reported",
			job: models.Job{
				Status:       models.JobStatusInProgress,
				WorkSessions: []models.WorkSession{{Start: t0}},
			},
			reasons: []DenialReason{ReasonTimerActive, ReasonToolsIncomplete, ReasonSignatureMissing},
		},
		{
			name: "closed then reopened session",
			job: models.Job{
				Status:       models.JobStatusInProgress,
				WorkSessions: []models.WorkSession{closedSession(t0, 10*time.Minute), {Start: t0.Add(20 * time.Minute)}},
			},
			reasons: []DenialReason{ReasonTimerActive, ReasonToolsIncomplete, ReasonSignatureMissing},
		},
		{
			name: "only signature missing",
			job: models.Job{
				Status:                models.JobStatusInProgress,
				WorkSessions:          []models.WorkSession{closedSession(t0, 30*time.Minute)},
				ToolsCheckCompletedAt: &done,
			},
			reasons: []DenialReason{ReasonSignatureMissing},
		},
		{
			name: "all conditions met",
			job: models.Job{
				Status:                models.JobStatusInProgress,
				WorkSessions:          []models.WorkSession{closedSession(t0, 30*time.Minute)},
				ToolsCheckCompletedAt: &done,
				Signature:             sig,
			},
			allowed: true,
			reasons: []DenialReason{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := tt.job
			d := EvaluateCompletion(&job)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reasons, d.Reasons)
		})
	}
}

func TestEvaluateCompletion_DoesNotMutate(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	job := &models.Job{
		Status:       models.JobStatusInProgress,
		ToolsChecked: map[string]bool{"floor_jack": true},
		WorkSessions: []models.WorkSession{{Start: t0}},
	}
	before := job.Clone()

	EvaluateCompletion(job)

	assert.Equal(t, before, job)
}
