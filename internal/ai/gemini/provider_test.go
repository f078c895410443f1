package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/kiranshivaraju/fieldops/internal/ai/transport"
	"github.com/kiranshivaraju/fieldops/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_RequiresKey(t *testing.T) {
	_, err := NewProvider(context.Background(), config.GeminiConfig{Model: "gemini-1.5-flash"})
	require.Error(t, err)
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Check coil 2. "), genai.Text("Then the plug.")}},
		}},
	}
	text, err := extractText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Check coil 2. Then the plug.", text)
}

func TestExtractText_Empty(t *testing.T) {
	tests := map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"no content":    {Candidates: []*genai.Candidate{{}}},
		"no text":       {Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}}}},
	}
	for name, resp := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := extractText(resp)
			assert.ErrorIs(t, err, transport.ErrInvalidResponse)
		})
	}
}
