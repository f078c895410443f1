package models

// WorkflowCategory is the coarse triage bucket chosen from symptom text.
type WorkflowCategory string

const (
	WorkflowElectrical  WorkflowCategory = "electrical"
	WorkflowMechanical  WorkflowCategory = "mechanical"
	WorkflowPerformance WorkflowCategory = "performance"
)

// WorkflowPriority is the fixed order in which symptom keyword sets are checked.
var WorkflowPriority = []WorkflowCategory{
	WorkflowElectrical,
	WorkflowMechanical,
	WorkflowPerformance,
}

// UnknownEngineFamily is reported for well-formed VINs no rule recognises.
const UnknownEngineFamily = "unknown"

// VehicleContext is the vehicle section of a DiagnosticContext.
type VehicleContext struct {
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	Year         int    `json:"year,omitempty"`
	VIN          string `json:"vin,omitempty"`
	EngineFamily string `json:"engine_family,omitempty"`
}

// CodeExplanation pairs a diagnostic trouble code with its mechanic-facing action.
type CodeExplanation struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
}

// DiagnosticContext is the structured summary handed to the remote assistant.
// It is derived per request and never persisted.
type DiagnosticContext struct {
	Vehicle            VehicleContext    `json:"vehicle"`
	KnownIssues        []string          `json:"known_issues,omitempty"`
	DiagnosticPriority []string          `json:"diagnostic_priority,omitempty"`
	CodeExplanations   []CodeExplanation `json:"code_explanations,omitempty"`
	WorkflowCategory   WorkflowCategory  `json:"workflow_category,omitempty"`
	SymptomWorkflow    []string          `json:"symptom_workflow,omitempty"`
}
