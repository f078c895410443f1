package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kiranshivaraju/fieldops/internal/ai/prompt"
	"github.com/kiranshivaraju/fieldops/internal/ai/transport"
	"github.com/kiranshivaraju/fieldops/internal/config"
	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// Provider implements models.AssistantProvider using Google Gemini.
type Provider struct {
	client *genai.Client
	model  string
}

func NewProvider(ctx context.Context, cfg config.GeminiConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{client: client, model: cfg.Model}, nil
}

func (p *Provider) Name() string { return "gemini" }

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

func (p *Provider) Assist(ctx context.Context, req models.AssistRequest) (models.AssistResponse, error) {
	text, err := prompt.Render(req)
	if err != nil {
		return models.AssistResponse{}, err
	}

	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(0.2)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}

	resp, err := model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.AssistResponse{}, transport.ClassifyError(ctxErr)
		}
		return models.AssistResponse{}, fmt.Errorf("%w: %v", transport.ErrProviderUnavailable, err)
	}

	answer, err := extractText(resp)
	if err != nil {
		return models.AssistResponse{}, err
	}
	return models.AssistResponse{Text: answer, Model: p.model}, nil
}

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", transport.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no content", transport.ErrInvalidResponse)
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no text parts", transport.ErrInvalidResponse)
	}
	return strings.Join(parts, ""), nil
}

var _ models.AssistantProvider = (*Provider)(nil)
