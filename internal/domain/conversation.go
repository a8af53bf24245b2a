package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConversationStatus represents the lifecycle state of a conversation
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "ACTIVE"
	ConversationArchived ConversationStatus = "ARCHIVED"
	ConversationDeleted  ConversationStatus = "DELETED"
)

// Conversation is an ordered, append-only thread of messages owned by one user
type Conversation struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"user_id"`
	Title     string             `json:"title,omitempty"`
	Status    ConversationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ConversationUpdate represents mutable conversation fields
type ConversationUpdate struct {
	Title  *string             `json:"title,omitempty" validate:"omitempty,max=255"`
	Status *ConversationStatus `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE ARCHIVED DELETED"`
}

// ConversationRepository defines the interface for conversation storage
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	Get(ctx context.Context, id uuid.UUID) (*Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Conversation, error)
	Update(ctx context.Context, conv *Conversation) error
	// Touch bumps updated_at; called on every appended message.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	// SoftDelete sets status to DELETED without removing messages.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
