package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/fieldops/internal/ai/prompt"
	"github.com/kiranshivaraju/fieldops/internal/ai/transport"
	"github.com/kiranshivaraju/fieldops/internal/config"
	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// Provider implements models.AssistantProvider against any server speaking
// the OpenAI chat completions API.
type Provider struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewProvider(cfg config.OpenAIConfig) *Provider {
	return NewCompatible("openai", cfg.BaseURL, cfg.APIKey, cfg.Model)
}

// NewCompatible builds a provider for an OpenAI-compatible endpoint such as vLLM.
// An empty apiKey sends no Authorization header.
func NewCompatible(name, baseURL, apiKey, model string) *Provider {
	return &Provider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  transport.DefaultClient,
	}
}

func (p *Provider) Name() string { return p.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *Provider) Assist(ctx context.Context, req models.AssistRequest) (models.AssistResponse, error) {
	text, err := prompt.Render(req)
	if err != nil {
		return models.AssistResponse{}, err
	}

	var headers map[string]string
	if p.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + p.apiKey}
	}

	var out chatResponse
	if err := transport.PostJSON(ctx, p.client, p.baseURL+"/v1/chat/completions", headers, chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: text},
		},
		Temperature: 0.2,
	}, &out); err != nil {
		return models.AssistResponse{}, err
	}

	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return models.AssistResponse{}, fmt.Errorf("%w: no choices", transport.ErrInvalidResponse)
	}
	model := out.Model
	if model == "" {
		model = p.model
	}
	return models.AssistResponse{Text: out.Choices[0].Message.Content, Model: model}, nil
}

var _ models.AssistantProvider = (*Provider)(nil)
