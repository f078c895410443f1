package prompt

import (
	"strings"
	"testing"

	"github.com/kiranshivaraju/fieldops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	req := models.AssistRequest{
		Context: models.DiagnosticContext{
			Vehicle:          models.VehicleContext{Make: "Ford", Model: "F-150", Year: 2013},
			CodeExplanations: []models.CodeExplanation{{Code: "P0302", Explanation: "Cylinder 2 misfire"}},
		},
		Question: "  Coil or plug?  ",
	}

	text, err := Render(req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Diagnostic context:\n"))
	assert.Contains(t, text, "P0302")
	assert.Contains(t, text, "F-150")
	assert.True(t, strings.HasSuffix(text, "Question: Coil or plug?"))
}

func TestRender_DefaultQuestion(t *testing.T) {
	text, err := Render(models.AssistRequest{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(text, "Question: "+DefaultQuestion))
}
