package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kiranshivaraju/fieldops/internal/cache"
	"github.com/kiranshivaraju/fieldops/internal/diagnostics"
	"github.com/kiranshivaraju/fieldops/pkg/models"
)

const maxAnswerBytes = 8000

// AssistParams is a technician's request for help on one vehicle.
type AssistParams struct {
	Vehicle  diagnostics.VehicleInput
	Codes    []string
	Symptoms []string
	Question string
}

// AssistResult is the diagnostic context together with the assistant's answer.
type AssistResult struct {
	Context  models.DiagnosticContext `json:"context"`
	Answer   string                   `json:"answer"`
	Provider string                   `json:"provider"`
	Model    string                   `json:"model"`
	Cached   bool                     `json:"cached"`
}

// AssistService builds the diagnostic context and asks the remote assistant.
// Context construction never blocks; only the provider call is bounded by timeout.
type AssistService struct {
	provider models.AssistantProvider
	builder  *diagnostics.Builder
	cache    cache.Cache
	timeout  time.Duration
	cacheTTL time.Duration
}

// NewAssistService creates a new AssistService. ca may be nil to disable answer caching.
func NewAssistService(provider models.AssistantProvider, builder *diagnostics.Builder, ca cache.Cache, timeout, cacheTTL time.Duration) *AssistService {
	return &AssistService{
		provider: provider,
		builder:  builder,
		cache:    ca,
		timeout:  timeout,
		cacheTTL: cacheTTL,
	}
}

// Assist answers a technician's question. The returned error wraps
// ErrProviderUnavailable, ErrInferenceTimeout or ErrInvalidResponse when the
// provider call fails.
func (s *AssistService) Assist(ctx context.Context, params AssistParams) (*AssistResult, error) {
	if isEmpty(params) {
		return nil, ErrEmptyRequest
	}

	dc := s.builder.Build(params.Vehicle, params.Codes, params.Symptoms)
	req := models.AssistRequest{Context: dc, Question: strings.TrimSpace(params.Question)}

	key, err := s.cacheKey(req)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.lookup(ctx, key); ok {
		cached.Context = dc
		cached.Cached = true
		return cached, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Assist(callCtx, req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrInferenceTimeout) {
			err = fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
		}
		return nil, fmt.Errorf("assist via %s: %w", s.provider.Name(), err)
	}

	result := &AssistResult{
		Context:  dc,
		Answer:   truncateString(strings.TrimSpace(resp.Text), maxAnswerBytes),
		Provider: s.provider.Name(),
		Model:    resp.Model,
	}
	s.store(ctx, key, result)
	return result, nil
}

func isEmpty(p AssistParams) bool {
	if strings.TrimSpace(p.Question) != "" || strings.TrimSpace(p.Vehicle.VIN) != "" {
		return false
	}
	for _, c := range p.Codes {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	for _, sym := range p.Symptoms {
		if strings.TrimSpace(sym) != "" {
			return false
		}
	}
	return true
}

// cacheKey addresses an answer by provider, context and question.
func (s *AssistService) cacheKey(req models.AssistRequest) (string, error) {
	payload, err := json.Marshal(struct {
		Provider string                   `json:"provider"`
		Context  models.DiagnosticContext `json:"context"`
		Question string                   `json:"question"`
	}{s.provider.Name(), req.Context, req.Question})
	if err != nil {
		return "", fmt.Errorf("encoding assist cache key: %w", err)
	}
	sum := sha256.Sum256(payload)
	return cache.AssistKey(s.provider.Name(), hex.EncodeToString(sum[:])), nil
}

func (s *AssistService) lookup(ctx context.Context, key string) (*AssistResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, found, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("assist cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var result AssistResult
	if err := json.Unmarshal(data, &result); err != nil {
		slog.Warn("assist cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return &result, true
}

func (s *AssistService) store(ctx context.Context, key string, result *AssistResult) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		slog.Warn("assist cache write failed", "key", key, "error", err)
	}
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
