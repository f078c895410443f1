package diagnostics

import (
	"testing"

	"github.com/kiranshivaraju/fieldops/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestExplainCode(t *testing.T) {
	c := NewClassifier(DefaultKnowledgeBase())

	assert.Equal(t,
		"Cylinder 2 misfire detected. Swap coil 2 with an adjacent cylinder and recheck; inspect the plug and injector if the misfire does not follow the coil.",
		c.ExplainCode("P0302"))
	assert.Equal(t, c.ExplainCode("P0302"), c.ExplainCode(" p0302 "), "codes are normalised before lookup")

	assert.Equal(t, FallbackExplanation, c.ExplainCode("P9999"))
	assert.Equal(t, FallbackExplanation, c.ExplainCode("not-a-code"))
	assert.Equal(t, FallbackExplanation, c.ExplainCode(""))
}

func TestClassifySymptoms(t *testing.T) {
	c := NewClassifier(DefaultKnowledgeBase())

	tests := []struct {
		name     string
		symptoms []string
		expected models.WorkflowCategory
	}{
		{name: "electrical only", symptoms: []string{"battery keeps dying"}, expected: models.WorkflowElectrical},
		{name: "mechanical only", symptoms: []string{"grinding noise when braking"}, expected: models.WorkflowMechanical},
		{name: "performance only", symptoms: []string{"rough idle"}, expected: models.WorkflowPerformance},
		{name: "electrical beats mechanical", symptoms: []string{"grinding noise", "dim lights"}, expected: models.WorkflowElectrical},
		{name: "electrical beats mechanical in one phrase", symptoms: []string{"clunk then the battery light"}, expected: models.WorkflowElectrical},
		{name: "mechanical beats performance", symptoms: []string{"rough idle", "coolant leak"}, expected: models.WorkflowMechanical},
		{name: "case and punctuation ignored", symptoms: []string{"SQUEAL!!!"}, expected: models.WorkflowMechanical},
		{name: "no match defaults to electrical", symptoms: []string{"smells funny"}, expected: models.WorkflowElectrical},
		{name: "empty defaults to electrical", symptoms: nil, expected: models.WorkflowElectrical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.ClassifySymptoms(tt.symptoms))
		})
	}
}

func TestClassifySymptoms_OrderIndependent(t *testing.T) {
	c := NewClassifier(DefaultKnowledgeBase())
	a := c.ClassifySymptoms([]string{"knocking", "won't start"})
	b := c.ClassifySymptoms([]string{"won't start", "knocking"})
	assert.Equal(t, models.WorkflowElectrical, a)
	assert.Equal(t, a, b)
}
