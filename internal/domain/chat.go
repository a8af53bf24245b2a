package domain

import "github.com/google/uuid"

// IntentType classifies what the user wants from a message
type IntentType string

const (
	IntentSearch  IntentType = "search"
	IntentGift    IntentType = "gift"
	IntentCompare IntentType = "compare"
	IntentGeneral IntentType = "general"
)

// WantsProducts reports whether the intent should trigger a catalog lookup
func (t IntentType) WantsProducts() bool {
	switch t {
	case IntentSearch, IntentGift, IntentCompare:
		return true
	}
	return false
}

// Intent is the structured interpretation of a free-text user message.
// Budget is nil when no amount could be parsed, never zero.
type Intent struct {
	Type     IntentType `json:"intent"`
	Keywords []string   `json:"keywords"`
	Category string     `json:"category,omitempty"`
	Budget   *float64   `json:"budget,omitempty"`
}

// ChatRequest is the inbound chat payload
type ChatRequest struct {
	UserID         uuid.UUID  `json:"user_id" validate:"required"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	Message        string     `json:"message" validate:"required,min=1,max=2000"`
}

// ChatResult is the combined outcome of one pipeline run
type ChatResult struct {
	ConversationID   uuid.UUID      `json:"conversation_id"`
	UserMessage      *Message       `json:"user_message"`
	AssistantMessage *Message       `json:"assistant_message"`
	Products         []ProductMatch `json:"products"`
	Intent           Intent         `json:"intent"`
}

// StreamChunkType tags incremental chat output
type StreamChunkType string

const (
	ChunkProducts StreamChunkType = "products"
	ChunkMessage  StreamChunkType = "message"
	ChunkError    StreamChunkType = "error"
	ChunkDone     StreamChunkType = "done"
)

// StreamChunk is one unit of a streamed chat response. Every stream ends
// with exactly one ChunkDone, even after a ChunkError.
type StreamChunk struct {
	Type     StreamChunkType `json:"type"`
	Content  string          `json:"content,omitempty"`
	Products []ProductMatch  `json:"data,omitempty"`
}
