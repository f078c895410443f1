package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	Value string `json:"value"`
}

func TestPostJSON_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Key"))

		var in echo
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		json.NewEncoder(w).Encode(echo{Value: in.Value + "!"})
	}))
	defer ts.Close()

	var out echo
	err := PostJSON(context.Background(), nil, ts.URL, map[string]string{"X-Key": "secret"}, echo{Value: "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi!", out.Value)
}

func TestPostJSON_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer ts.Close()

	err := PostJSON(context.Background(), nil, ts.URL, nil, echo{}, &echo{})
	require.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "status 503")
	assert.Less(t, len(err.Error()), 700)
}

func TestPostJSON_BadBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	err := PostJSON(context.Background(), nil, ts.URL, nil, echo{}, &echo{})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestPostJSON_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := PostJSON(ctx, nil, ts.URL, nil, echo{}, &echo{})
	assert.ErrorIs(t, err, ErrInferenceTimeout)
}

func TestPostJSON_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	err := PostJSON(context.Background(), nil, url, nil, echo{}, &echo{})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestPostJSON_CallerCanceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := PostJSON(ctx, nil, ts.URL, nil, echo{}, &echo{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrInferenceTimeout)
	assert.NotErrorIs(t, err, ErrProviderUnavailable)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    error
		notWant []error
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ErrInferenceTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("post: %w", context.DeadlineExceeded), want: ErrInferenceTimeout},
		{name: "canceled", err: context.Canceled, want: context.Canceled, notWant: []error{ErrInferenceTimeout, ErrProviderUnavailable}},
		{name: "refused", err: errors.New("connection refused"), want: ErrProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			for _, nw := range tt.notWant {
				assert.NotErrorIs(t, got, nw)
			}
		})
	}
}
