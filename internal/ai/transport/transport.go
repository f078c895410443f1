// Package transport holds the error kinds and the JSON-over-HTTP call shared
// by the assistant providers.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)

// maxErrorBody bounds how much of a failed response body ends up in an error.
const maxErrorBody = 512

// DefaultClient has no timeout of its own; callers bound calls with ctx.
var DefaultClient = &http.Client{}

// PostJSON sends in as a JSON body to url and decodes a 2xx response into out.
func PostJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, in, out any) error {
	if client == nil {
		client = DefaultClient
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return ClassifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ClassifyError(ctxErr)
		}
		return fmt.Errorf("%w: decoding response: %v", ErrInvalidResponse, err)
	}
	return nil
}

// ClassifyError maps transport-level errors to sentinel errors. A canceled
// caller is not a provider fault and keeps its own error.
func ClassifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("assistant request canceled: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
