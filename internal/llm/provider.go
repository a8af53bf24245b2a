package llm

import "context"

// Role constants for chat messages
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn passed to a completion backend
type Message struct {
	Role    string
	Content string
}

// Response contains a completion result
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete runs a single-turn chat completion
	Complete(ctx context.Context, messages []Message, model string) (*Response, error)

	// StreamComplete runs a streaming completion, invoking onDelta for each
	// generated text fragment in order. The returned Response carries the
	// accumulated content.
	StreamComplete(ctx context.Context, messages []Message, model string, onDelta func(delta string)) (*Response, error)
}
