package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "USER"
	RoleAssistant MessageRole = "ASSISTANT"
	RoleSystem    MessageRole = "SYSTEM"
)

// MessageMetadata carries pipeline context persisted with assistant
// messages. It is a closed record, not an open map.
type MessageMetadata struct {
	Intent        string `json:"intent,omitempty"`
	ProductsFound int    `json:"products_found"`
	Streaming     bool   `json:"streaming,omitempty"`
	Completed     bool   `json:"completed,omitempty"`
}

// Message represents one turn in a conversation. Messages are append-only
// and never mutated after creation.
type Message struct {
	ID             uuid.UUID        `json:"id"`
	ConversationID uuid.UUID        `json:"conversation_id"`
	Role           MessageRole      `json:"role"`
	Content        string           `json:"content"`
	Metadata       *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	// ListByConversation returns messages oldest first; insertion order is
	// preserved even when timestamps collide.
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error)
	CountByConversation(ctx context.Context, conversationID uuid.UUID) (int, error)
}
