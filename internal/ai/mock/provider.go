package mock

import (
	"context"
	"sync/atomic"

	"github.com/kiranshivaraju/fieldops/internal/ai/transport"
	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// MockProvider satisfies models.AssistantProvider for testing and local runs.
type MockProvider struct {
	Name_      string
	AssistFunc func(ctx context.Context, req models.AssistRequest) (models.AssistResponse, error)

	calls atomic.Int64
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Assist(ctx context.Context, req models.AssistRequest) (models.AssistResponse, error) {
	m.calls.Add(1)
	if m.AssistFunc != nil {
		return m.AssistFunc(ctx, req)
	}
	return models.AssistResponse{}, nil
}

// Calls reports how many times Assist was invoked.
func (m *MockProvider) Calls() int64 { return m.calls.Load() }

// NewMockProvider returns a MockProvider that answers from the diagnostic context.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		AssistFunc: func(_ context.Context, req models.AssistRequest) (models.AssistResponse, error) {
			text := "Mock answer: start with a scan for stored codes."
			if len(req.Context.DiagnosticPriority) > 0 {
				text = "Mock answer: start with " + req.Context.DiagnosticPriority[0]
			} else if len(req.Context.CodeExplanations) > 0 {
				text = "Mock answer: " + req.Context.CodeExplanations[0].Explanation
			}
			return models.AssistResponse{Text: text, Model: "mock-v1"}, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		AssistFunc: func(_ context.Context, _ models.AssistRequest) (models.AssistResponse, error) {
			return models.AssistResponse{}, err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		AssistFunc: func(ctx context.Context, _ models.AssistRequest) (models.AssistResponse, error) {
			<-ctx.Done()
			return models.AssistResponse{}, transport.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AssistantProvider.
var _ models.AssistantProvider = (*MockProvider)(nil)
