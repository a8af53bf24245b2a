package groq

import (
	"github.com/pricely/backend/internal/llm"
	"github.com/pricely/backend/internal/llm/openai"
)

// NewProvider creates a Groq provider. Groq exposes an OpenAI-compatible
// chat-completions API, so the transport is shared.
func NewProvider(apiKey, defaultModel string) llm.Provider {
	if defaultModel == "" {
		defaultModel = "llama-3.3-70b-versatile"
	}
	return openai.NewCompatibleProvider(
		"groq",
		"https://api.groq.com/openai/v1",
		apiKey,
		defaultModel,
		[]string{
			"llama-3.3-70b-versatile",
			"llama-3.1-8b-instant",
			"mixtral-8x7b-32768",
		},
	)
}
