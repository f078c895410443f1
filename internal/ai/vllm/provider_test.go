package vllm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kiranshivaraju/fieldops/internal/config"
	"github.com/kiranshivaraju/fieldops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssist(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"model":"mistral-7b","choices":[{"message":{"role":"assistant","content":"Test the injector."}}]}`))
	}))
	defer ts.Close()

	p := NewProvider(config.VLLMConfig{BaseURL: ts.URL, Model: "mistral-7b"})
	resp, err := p.Assist(context.Background(), models.AssistRequest{Question: "next?"})
	require.NoError(t, err)
	assert.Equal(t, "vllm", p.Name())
	assert.Equal(t, "Test the injector.", resp.Text)
	assert.Equal(t, "mistral-7b", resp.Model)
}
