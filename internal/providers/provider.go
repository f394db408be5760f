// internal/providers/provider.go

// Package providers defines the interface for sending chat requests to
// language model hosts, regardless of the underlying HTTP API (Ollama,
// llama.cpp).
package providers

import (
	"context"

	"github.com/mwiater/thematic/internal/appconfig"
)

// ChatMessage represents a single message in a chat conversation.
// It contains the role of the message sender (e.g., "user", "assistant") and the message content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest encapsulates one non-streaming chat completion.
type ChatRequest struct {
	Host         appconfig.Host
	Model        string
	SystemPrompt string
	Messages     []ChatMessage
	// JSONMode asks the host to constrain output to a JSON value.
	JSONMode bool
}

// ChatResponse is the assistant reply plus host-reported timings.
type ChatResponse struct {
	Model           string
	Message         ChatMessage
	TotalDuration   int64
	PromptEvalCount int
	EvalCount       int
}

// ChatProvider is the interface that all model providers must implement.
type ChatProvider interface {
	// Chat sends the request and waits for the full reply.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// Close cleans up any resources used by the provider.
	Close() error
}

// WithSystemPrompt prepends the system prompt (request first, then host) to messages.
func WithSystemPrompt(req ChatRequest) []ChatMessage {
	prompt := req.SystemPrompt
	if prompt == "" {
		prompt = req.Host.SystemPrompt
	}
	if prompt == "" {
		return req.Messages
	}
	return append([]ChatMessage{{Role: "system", Content: prompt}}, req.Messages...)
}
