package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiranshivaraju/fieldops/internal/ai"
	"github.com/kiranshivaraju/fieldops/internal/ai/mock"
	"github.com/kiranshivaraju/fieldops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() models.AssistRequest {
	return models.AssistRequest{
		Context: models.DiagnosticContext{
			Vehicle:            models.VehicleContext{Make: "Ford", VIN: "1FTFW1ET5DFA12345", EngineFamily: "ford-ecoboost-3.5"},
			DiagnosticPriority: []string{"Check cam phaser operation"},
		},
		Question: "Where do I start?",
	}
}

func TestNewMockProvider_Name(t *testing.T) {
	p := mock.NewMockProvider()
	assert.Equal(t, "mock", p.Name())
}

func TestNewMockProvider_Assist(t *testing.T) {
	p := mock.NewMockProvider()
	resp, err := p.Assist(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "mock-v1", resp.Model)
	assert.Contains(t, resp.Text, "Check cam phaser operation")
	assert.Equal(t, int64(1), p.Calls())
}

func TestNewMockProvider_EmptyContext(t *testing.T) {
	p := mock.NewMockProvider()
	resp, err := p.Assist(context.Background(), models.AssistRequest{})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text)
}

func TestMockProvider_NilFuncReturnsZero(t *testing.T) {
	p := &mock.MockProvider{Name_: "bare"}
	resp, err := p.Assist(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, models.AssistResponse{}, resp)
}

func TestNewFailingProvider(t *testing.T) {
	p := mock.NewFailingProvider(ai.ErrProviderUnavailable)
	assert.Equal(t, "mock-failing", p.Name())

	_, err := p.Assist(context.Background(), sampleRequest())
	assert.True(t, errors.Is(err, ai.ErrProviderUnavailable))
}

func TestNewTimeoutProvider(t *testing.T) {
	p := mock.NewTimeoutProvider()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Assist(ctx, sampleRequest())

	assert.ErrorIs(t, err, ai.ErrInferenceTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
