package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pricely/backend/internal/domain"
)

// ConversationService handles conversation management operations
type ConversationService struct {
	convRepo    domain.ConversationRepository
	messageRepo domain.MessageRepository
}

// NewConversationService creates a new conversation service
func NewConversationService(convRepo domain.ConversationRepository, messageRepo domain.MessageRepository) *ConversationService {
	return &ConversationService{
		convRepo:    convRepo,
		messageRepo: messageRepo,
	}
}

// Create starts an empty conversation
func (s *ConversationService) Create(ctx context.Context, userID uuid.UUID, title string) (*domain.Conversation, error) {
	now := time.Now()
	conv := &domain.Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Status:    domain.ConversationActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// List returns a user's conversations, most recently active first.
// Deleted conversations are excluded.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.convRepo.ListByUser(ctx, userID, limit, offset)
}

// Get returns one conversation, enforcing ownership
func (s *ConversationService) Get(ctx context.Context, userID, conversationID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID || conv.Status == domain.ConversationDeleted {
		return nil, domain.ErrConversationNotFound
	}
	return conv, nil
}

// Messages returns a conversation's messages, oldest first
func (s *ConversationService) Messages(ctx context.Context, userID, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	if _, err := s.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.messageRepo.ListByConversation(ctx, conversationID, limit)
}

// Update applies title and status changes
func (s *ConversationService) Update(ctx context.Context, userID, conversationID uuid.UUID, input domain.ConversationUpdate) (*domain.Conversation, error) {
	conv, err := s.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		conv.Title = *input.Title
	}
	if input.Status != nil {
		conv.Status = *input.Status
	}
	conv.UpdatedAt = time.Now()

	if err := s.convRepo.Update(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Delete soft-deletes a conversation. Its messages stay in place.
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.convRepo.SoftDelete(ctx, conversationID)
}
