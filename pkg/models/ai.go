package models

import "context"

// AssistantProvider is the remote assistant collaborator.
// Handlers and services depend on this interface, never on a concrete provider.
type AssistantProvider interface {
	// Assist answers a technician's question using the supplied diagnostic context.
	Assist(ctx context.Context, req AssistRequest) (AssistResponse, error)
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// AssistRequest is the input to an assistant call.
type AssistRequest struct {
	Context  DiagnosticContext
	Question string
}

// AssistResponse is advisory text returned by the assistant. It is opaque to the core.
type AssistResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}
