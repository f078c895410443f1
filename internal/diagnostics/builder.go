package diagnostics

import (
	"strings"

	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// VehicleInput is the raw vehicle description supplied by the caller.
type VehicleInput struct {
	Make  string
	Model string
	Year  int
	VIN   string
}

// Builder composes parser, knowledge base and classifier output into a
// DiagnosticContext.
type Builder struct {
	kb         *KnowledgeBase
	classifier *Classifier
}

// NewBuilder creates a Builder backed by kb.
func NewBuilder(kb *KnowledgeBase) *Builder {
	return &Builder{kb: kb, classifier: NewClassifier(kb)}
}

// Classifier exposes the builder's classifier.
func (b *Builder) Classifier() *Classifier { return b.classifier }

// Build never fails. A section with nothing to report is left empty: an
// invalid VIN skips the engine lookup, blank codes are skipped, and an empty
// symptom list produces no workflow.
func (b *Builder) Build(vehicle VehicleInput, codes, symptoms []string) models.DiagnosticContext {
	dc := models.DiagnosticContext{
		Vehicle: models.VehicleContext{
			Make:  strings.TrimSpace(vehicle.Make),
			Model: strings.TrimSpace(vehicle.Model),
			Year:  vehicle.Year,
		},
	}

	if strings.TrimSpace(vehicle.VIN) != "" {
		if parsed := ParseVIN(vehicle.VIN); parsed.Valid {
			dc.Vehicle.VIN = parsed.VIN
			dc.Vehicle.EngineFamily = parsed.EngineFamily
			if ek, ok := b.kb.Engine(parsed.EngineFamily); ok {
				dc.KnownIssues = ek.KnownIssues
				dc.DiagnosticPriority = ek.DiagnosticPriority
			}
		}
	}

	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		norm := NormalizeCode(code)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		dc.CodeExplanations = append(dc.CodeExplanations, models.CodeExplanation{
			Code:        norm,
			Explanation: b.classifier.ExplainCode(norm),
		})
	}

	if len(tokenize(symptoms)) > 0 {
		cat := b.classifier.ClassifySymptoms(symptoms)
		dc.WorkflowCategory = cat
		dc.SymptomWorkflow = b.classifier.Workflow(cat)
	}

	return dc
}
