package anthropic

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

const apiVersion = "2023-06-01"

// Provider implements models.AssistantProvider using the Anthropic Messages API.
type Provider struct {
	cfg    config.AnthropicConfig
	client *http.Client
}

func NewProvider(cfg config.AnthropicConfig) *Provider {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Provider{cfg: cfg, client: transport.DefaultClient}
}

func (p *Provider) Name() string { return "anthropic" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Provider) Assist(ctx context.Context, req models.AssistRequest) (models.AssistResponse, error) {
	text, err := prompt.Render(req)
	if err != nil {
		return models.AssistResponse{}, err
	}

	headers := map[string]string{
		"x-api-key":         p.cfg.APIKey,
		"anthropic-version": apiVersion,
	}

	var out messagesResponse
	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/messages"
	if err := transport.PostJSON(ctx, p.client, url, headers, messagesRequest{
		Model:     p.cfg.Model,
		MaxTokens: p.cfg.MaxTokens,
		System:    prompt.System,
		Messages:  []message{{Role: "user", Content: text}},
	}, &out); err != nil {
		return models.AssistResponse{}, err
	}

	var parts []string
	for _, block := range out.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return models.AssistResponse{}, fmt.Errorf("%w: no text content", transport.ErrInvalidResponse)
	}
	model := out.Model
	if model == "" {
		model = p.cfg.Model
	}
	return models.AssistResponse{Text: strings.Join(parts, ""), Model: model}, nil
}

var _ models.AssistantProvider = (*Provider)(nil)
