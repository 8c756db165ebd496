package llm

import (
	"context"
	"errors"
)

// Completer sends one prompt to a language model and returns its raw text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SystemPrompt is sent ahead of every prompt by the provider clients.
const SystemPrompt = "You are a GRC (Governance, Risk, and Compliance) analyst. You extract structured data from documents with high accuracy. Always return valid JSON without markdown formatting."

// ProbePrompt is the connectivity check sent by the health endpoint.
const ProbePrompt = `Return JSON: {"ok": true}`

// ErrNotConfigured is returned by the placeholder completer.
var ErrNotConfigured = errors.New("llm provider not configured")

// PlaceholderCompleter is used when no provider is configured. Every call
// fails, so imports still produce schema-complete records from defaults.
type PlaceholderCompleter struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderCompleter) Complete(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
