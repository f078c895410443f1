package vllm

import (
	"github.com/kiranshivaraju/fieldops/internal/ai/openai"
	"github.com/kiranshivaraju/fieldops/internal/config"
	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// Provider implements models.AssistantProvider using vLLM's OpenAI-compatible server.
type Provider struct {
	*openai.Provider
}

func NewProvider(cfg config.VLLMConfig) *Provider {
	return &Provider{Provider: openai.NewCompatible("vllm", cfg.BaseURL, "", cfg.Model)}
}

var _ models.AssistantProvider = (*Provider)(nil)
