package ai

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/fieldops/internal/ai/anthropic"
	"github.com/kiranshivaraju/fieldops/internal/ai/gemini"
	"github.com/kiranshivaraju/fieldops/internal/ai/mock"
	"github.com/kiranshivaraju/fieldops/internal/ai/ollama"
	"github.com/kiranshivaraju/fieldops/internal/ai/openai"
	"github.com/kiranshivaraju/fieldops/internal/ai/vllm"
	"github.com/kiranshivaraju/fieldops/internal/config"
	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// NewProvider constructs the appropriate assistant provider based on config.
// Called once at server startup.
func NewProvider(ctx context.Context, cfg config.AIConfig) (models.AssistantProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	case "vllm":
		return vllm.NewProvider(cfg.VLLM), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	case "gemini":
		p, err := gemini.NewProvider(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, vllm, openai, anthropic, gemini, mock", cfg.Provider)
	}
}
