package jobs

import (
	"time"

	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// TotalWorked sums closed sessions. Open sessions are not counted until stopped.
func TotalWorked(sessions []models.WorkSession) time.Duration {
	var total time.Duration
	for _, s := range sessions {
		total += s.Duration()
	}
	return total
}

// TimerStatus is the read model for a job's work timer.
type TimerStatus struct {
	Active       *models.WorkSession `json:"active,omitempty"`
	Sessions     int                 `json:"sessions"`
	TotalMinutes float64             `json:"total_minutes"`
}

func timerStatus(job *models.Job) TimerStatus {
	st := TimerStatus{
		Sessions:     len(job.WorkSessions),
		TotalMinutes: TotalWorked(job.WorkSessions).Minutes(),
	}
	if idx := job.ActiveSession(); idx >= 0 {
		s := job.WorkSessions[idx]
		st.Active = &s
	}
	return st
}
