package ollama

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

// Provider implements models.AssistantProvider using Ollama's generate API.
type Provider struct {
	cfg    config.OllamaConfig
	client *http.Client
}

func NewProvider(cfg config.OllamaConfig) *Provider {
	return &Provider{cfg: cfg, client: transport.DefaultClient}
}

func (p *Provider) Name() string { return "ollama" }

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (p *Provider) Assist(ctx context.Context, req models.AssistRequest) (models.AssistResponse, error) {
	text, err := prompt.Render(req)
	if err != nil {
		return models.AssistResponse{}, err
	}

	var out generateResponse
	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/api/generate"
	if err := transport.PostJSON(ctx, p.client, url, nil, generateRequest{
		Model:  p.cfg.Model,
		System: prompt.System,
		Prompt: text,
	}, &out); err != nil {
		return models.AssistResponse{}, err
	}

	if strings.TrimSpace(out.Response) == "" {
		return models.AssistResponse{}, fmt.Errorf("%w: empty response", transport.ErrInvalidResponse)
	}
	model := out.Model
	if model == "" {
		model = p.cfg.Model
	}
	return models.AssistResponse{Text: out.Response, Model: model}, nil
}

var _ models.AssistantProvider = (*Provider)(nil)
