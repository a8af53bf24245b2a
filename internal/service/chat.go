package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pricely/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// ChatService orchestrates the chat pipeline: conversation bookkeeping,
// intent extraction, product resolution and response composition.
type ChatService struct {
	intent        *IntentService
	resolver      *ResolverService
	composer      *ComposerService
	convRepo      domain.ConversationRepository
	messageRepo   domain.MessageRepository
	historyLimit  int
	titleMaxChars int
}

// NewChatService creates a new chat service
func NewChatService(
	intent *IntentService,
	resolver *ResolverService,
	composer *ComposerService,
	convRepo domain.ConversationRepository,
	messageRepo domain.MessageRepository,
	historyLimit int,
	titleMaxChars int,
) *ChatService {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	if titleMaxChars <= 0 {
		titleMaxChars = 50
	}
	return &ChatService{
		intent:        intent,
		resolver:      resolver,
		composer:      composer,
		convRepo:      convRepo,
		messageRepo:   messageRepo,
		historyLimit:  historyLimit,
		titleMaxChars: titleMaxChars,
	}
}

// Send runs one full chat turn and returns the complete result.
// LLM failures degrade to fallbacks inside the pipeline; only catalog and
// persistence failures surface as errors.
func (s *ChatService) Send(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error) {
	conv, history, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	userMsg, err := s.saveUserMessage(ctx, conv.ID, req.Message)
	if err != nil {
		return nil, err
	}

	intent := s.intent.Extract(ctx, req.Message, history)

	products, err := s.resolver.Resolve(ctx, intent)
	if err != nil {
		return nil, err
	}

	content := s.composer.Compose(ctx, req.Message, history, products)

	assistantMsg, err := s.saveAssistantMessage(ctx, conv.ID, content, &domain.MessageMetadata{
		Intent:        string(intent.Type),
		ProductsFound: len(products),
		Completed:     true,
	})
	if err != nil {
		return nil, err
	}

	s.touch(ctx, conv.ID)

	return &domain.ChatResult{
		ConversationID:   conv.ID,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Products:         products,
		Intent:           intent,
	}, nil
}

// SendStream runs one chat turn, emitting chunks as they become
// available. Every stream ends with exactly one done chunk. The assistant
// message is persisted even when the client disconnects mid-stream; the
// partial content is marked streaming and not completed.
func (s *ChatService) SendStream(ctx context.Context, req domain.ChatRequest, emit func(domain.StreamChunk)) error {
	defer emit(domain.StreamChunk{Type: domain.ChunkDone})

	conv, history, err := s.prepare(ctx, req)
	if err != nil {
		emit(domain.StreamChunk{Type: domain.ChunkError, Content: "conversation not found"})
		return err
	}

	if _, err := s.saveUserMessage(ctx, conv.ID, req.Message); err != nil {
		emit(domain.StreamChunk{Type: domain.ChunkError, Content: "failed to save message"})
		return err
	}

	intent := s.intent.Extract(ctx, req.Message, history)

	products, err := s.resolver.Resolve(ctx, intent)
	if err != nil {
		emit(domain.StreamChunk{Type: domain.ChunkError, Content: "product catalog is unavailable"})
		return err
	}
	if len(products) > 0 {
		emit(domain.StreamChunk{Type: domain.ChunkProducts, Products: products})
	}

	content, streamErr := s.composer.ComposeStream(ctx, req.Message, history, products, func(delta string) {
		emit(domain.StreamChunk{Type: domain.ChunkMessage, Content: delta})
	})

	// Persist whatever was generated, even a partial reply after a
	// disconnect. Persistence uses a fresh context since ctx may already
	// be canceled.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if content != "" {
		metadata := &domain.MessageMetadata{
			Intent:        string(intent.Type),
			ProductsFound: len(products),
			Streaming:     true,
			Completed:     streamErr == nil,
		}
		if _, err := s.saveAssistantMessage(persistCtx, conv.ID, content, metadata); err != nil {
			log.Error().Err(err).Str("conversation_id", conv.ID.String()).Msg("failed to persist streamed reply")
		}
	}

	s.touch(persistCtx, conv.ID)

	if streamErr != nil {
		emit(domain.StreamChunk{Type: domain.ChunkError, Content: "response stream interrupted"})
		return streamErr
	}
	return nil
}

// prepare resolves the target conversation and its recent history.
// A missing ConversationID starts a new conversation titled after the
// first message. Deleted conversations and conversations owned by someone
// else are reported as not found.
func (s *ChatService) prepare(ctx context.Context, req domain.ChatRequest) (*domain.Conversation, []domain.Message, error) {
	if req.ConversationID == nil {
		now := time.Now()
		conv := &domain.Conversation{
			ID:        uuid.New(),
			UserID:    req.UserID,
			Title:     truncateTitle(req.Message, s.titleMaxChars),
			Status:    domain.ConversationActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.convRepo.Create(ctx, conv); err != nil {
			return nil, nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		return conv, nil, nil
	}

	conv, err := s.convRepo.Get(ctx, *req.ConversationID)
	if err != nil {
		return nil, nil, err
	}
	if conv.UserID != req.UserID || conv.Status == domain.ConversationDeleted {
		return nil, nil, domain.ErrConversationNotFound
	}

	history, err := s.messageRepo.ListByConversation(ctx, conv.ID, s.historyLimit)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conv.ID.String()).Msg("failed to load history")
		history = nil
	}
	return conv, history, nil
}

func (s *ChatService) saveUserMessage(ctx context.Context, conversationID uuid.UUID, content string) (*domain.Message, error) {
	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           domain.RoleUser,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return msg, nil
}

// saveAssistantMessage persists the reply, retrying once on failure so a
// transient write error doesn't lose a generated response.
func (s *ChatService) saveAssistantMessage(ctx context.Context, conversationID uuid.UUID, content string, metadata *domain.MessageMetadata) (*domain.Message, error) {
	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           domain.RoleAssistant,
		Content:        content,
		Metadata:       metadata,
		CreatedAt:      time.Now(),
	}
	err := s.messageRepo.Create(ctx, msg)
	if err != nil {
		log.Warn().Err(err).Msg("assistant message write failed, retrying")
		err = s.messageRepo.Create(ctx, msg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return msg, nil
}

func (s *ChatService) touch(ctx context.Context, conversationID uuid.UUID) {
	if err := s.convRepo.Touch(ctx, conversationID, time.Now()); err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID.String()).Msg("failed to touch conversation")
	}
}

// truncateTitle derives a conversation title from the first message,
// cutting on runes so multibyte text is never split.
func truncateTitle(message string, maxChars int) string {
	runes := []rune(message)
	if len(runes) <= maxChars {
		return message
	}
	return string(runes[:maxChars])
}
