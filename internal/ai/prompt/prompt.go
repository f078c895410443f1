// Package prompt renders assistant requests into model input text.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// System is the instruction sent to every provider.
const System = `You are a senior automotive technician assisting a colleague in the field.
Answer using the diagnostic context provided. Prefer concrete test steps in the
order given by the diagnostic priority and code explanations. If the context is
insufficient, say which measurement would narrow it down. Keep the answer short.`

// DefaultQuestion is used when the technician sends only codes or symptoms.
const DefaultQuestion = "What should I check first, and in what order?"

// Render builds the user message from the diagnostic context and question.
func Render(req models.AssistRequest) (string, error) {
	ctxJSON, err := json.MarshalIndent(req.Context, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding diagnostic context: %w", err)
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		question = DefaultQuestion
	}

	var b strings.Builder
	b.WriteString("Diagnostic context:\n")
	b.Write(ctxJSON)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String(), nil
}
