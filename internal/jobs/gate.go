package jobs

import "github.com/kiranshivaraju/fieldops/pkg/models"

// DenialReason names one unmet completion condition.
type DenialReason string

const (
	ReasonNoWorkLogged     DenialReason = "no_work_logged"
	ReasonTimerActive      DenialReason = "timer_active"
	ReasonToolsIncomplete  DenialReason = "tools_incomplete"
	ReasonSignatureMissing DenialReason = "signature_missing"
)

// Decision is the Completion Gate's verdict. A denial is a normal result, not an error.
type Decision struct {
	Allowed bool           `json:"allowed"`
	Reasons []DenialReason `json:"reasons"`
}

// EvaluateCompletion checks every completion condition independently and
// returns all unmet ones in a fixed order. It never mutates the job.
func EvaluateCompletion(job *models.Job) Decision {
	reasons := []DenialReason{}

	if len(job.WorkSessions) == 0 {
		reasons = append(reasons, ReasonNoWorkLogged)
	}
	if job.ActiveSession() >= 0 {
		reasons = append(reasons, ReasonTimerActive)
	}
	if job.ToolsCheckCompletedAt == nil {
		reasons = append(reasons, ReasonToolsIncomplete)
	}
	if job.Signature == nil {
		reasons = append(reasons, ReasonSignatureMissing)
	}

	return Decision{Allowed: len(reasons) == 0, Reasons: reasons}
}
