package ai

import (
	"errors"

	"github.com/kiranshivaraju/fieldops/internal/ai/transport"
)

// Provider error kinds. Providers return these wrapped; match with errors.Is.
var (
	ErrProviderUnavailable = transport.ErrProviderUnavailable
	ErrInferenceTimeout    = transport.ErrInferenceTimeout
	ErrInvalidResponse     = transport.ErrInvalidResponse
)

// ErrEmptyRequest means there was nothing to ask the assistant about.
var ErrEmptyRequest = errors.New("assist request has no vehicle, codes, symptoms or question")
