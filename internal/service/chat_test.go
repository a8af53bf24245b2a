package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pricely/backend/internal/domain"
	"github.com/pricely/backend/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type chatFixture struct {
	svc      *ChatService
	provider *MockLLMProvider
	catalog  *MockCatalogRepository
	convRepo *MockConversationRepository
	msgRepo  *MockMessageRepository
}

// newChatFixture wires a chat service against mocks. The same mock
// provider serves intent extraction and composition.
func newChatFixture() *chatFixture {
	provider := configuredProvider()
	router := newMockRouter(provider)
	catalog := new(MockCatalogRepository)
	convRepo := new(MockConversationRepository)
	msgRepo := new(MockMessageRepository)

	svc := NewChatService(
		NewIntentService(router, 0),
		NewResolverService(catalog, 5),
		NewComposerService(router, 10, 0),
		convRepo,
		msgRepo,
		10,
		50,
	)
	return &chatFixture{svc: svc, provider: provider, catalog: catalog, convRepo: convRepo, msgRepo: msgRepo}
}

// expectIntent stubs the intent-extraction completion. Matching keys off
// the JSON-only instruction keeps it from swallowing composition calls.
func (f *chatFixture) expectIntent(json string) {
	f.provider.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []llm.Message) bool {
		return len(msgs) >= 2 && strings.Contains(msgs[len(msgs)-1].Content, "Return ONLY a JSON object")
	}), "test-model").Return(&llm.Response{Content: json}, nil)
}

func (f *chatFixture) expectComposition(reply string) {
	f.provider.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []llm.Message) bool {
		return len(msgs) >= 2 && msgs[0].Content == llm.SystemPrompt
	}), "test-model").Return(&llm.Response{Content: reply}, nil)
}

func userMessages(role domain.MessageRole) interface{} {
	return mock.MatchedBy(func(m *domain.Message) bool { return m.Role == role })
}

func TestChatService_Send_NewConversation(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	userID := uuid.New()

	f.expectIntent(`{"intent": "search", "keywords": ["headphones"], "budget": 100}`)
	f.expectComposition("The cheapest headphones are the Baseline at €49.99 at AudioHut.")
	f.catalog.On("SearchProducts", mock.Anything, []string{"headphones"}, 20).
		Return([]domain.ProductMatch{match("Baseline", 49.99, true)}, nil)
	f.convRepo.On("Create", ctx, mock.AnythingOfType("*domain.Conversation")).Return(nil)
	f.convRepo.On("Touch", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("time.Time")).Return(nil)
	f.msgRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)

	result, err := f.svc.Send(ctx, domain.ChatRequest{
		UserID:  userID,
		Message: "find me headphones under 100€",
	})

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.ConversationID)
	assert.Equal(t, domain.RoleUser, result.UserMessage.Role)
	assert.Equal(t, domain.RoleAssistant, result.AssistantMessage.Role)
	assert.Contains(t, result.AssistantMessage.Content, "Baseline")
	assert.Len(t, result.Products, 1)
	assert.Equal(t, domain.IntentSearch, result.Intent.Type)

	if meta := result.AssistantMessage.Metadata; assert.NotNil(t, meta) {
		assert.Equal(t, "search", meta.Intent)
		assert.Equal(t, 1, meta.ProductsFound)
		assert.False(t, meta.Streaming)
		assert.True(t, meta.Completed)
	}

	f.convRepo.AssertExpectations(t)
	f.msgRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestChatService_Send_TitleTruncation(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	long := strings.Repeat("find me the best noise cancelling headphones ", 3)
	f.expectIntent(`{"intent": "general", "keywords": []}`)
	f.expectComposition("Sure!")

	var created *domain.Conversation
	f.convRepo.On("Create", ctx, mock.MatchedBy(func(c *domain.Conversation) bool {
		created = c
		return true
	})).Return(nil)
	f.convRepo.On("Touch", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Send(ctx, domain.ChatRequest{UserID: uuid.New(), Message: long})

	assert.NoError(t, err)
	if assert.NotNil(t, created) {
		assert.Equal(t, 50, len([]rune(created.Title)))
		assert.True(t, strings.HasPrefix(long, created.Title))
	}
}

func TestChatService_Send_GeneralSkipsCatalog(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.expectIntent(`{"intent": "general", "keywords": []}`)
	f.expectComposition("Hi! What are you shopping for?")
	f.convRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.convRepo.On("Touch", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.Send(ctx, domain.ChatRequest{UserID: uuid.New(), Message: "hello!"})

	assert.NoError(t, err)
	assert.Empty(t, result.Products)
	f.catalog.AssertNotCalled(t, "SearchProducts", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_Send_ExistingConversation(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	userID := uuid.New()
	convID := uuid.New()

	conv := &domain.Conversation{ID: convID, UserID: userID, Status: domain.ConversationActive}
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "find headphones"},
		{Role: domain.RoleAssistant, Content: "Here are some options."},
	}

	f.expectIntent(`{"intent": "general", "keywords": []}`)
	f.provider.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []llm.Message) bool {
		// History must make it into the composition transcript.
		return msgs[0].Content == llm.SystemPrompt && len(msgs) == 4 && msgs[1].Content == "find headphones"
	}), "test-model").Return(&llm.Response{Content: "Anything else?"}, nil)

	f.convRepo.On("Get", ctx, convID).Return(conv, nil)
	f.convRepo.On("Touch", mock.Anything, convID, mock.Anything).Return(nil)
	f.msgRepo.On("ListByConversation", ctx, convID, 10).Return(history, nil)
	f.msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.Send(ctx, domain.ChatRequest{
		UserID:         userID,
		ConversationID: &convID,
		Message:        "what about cheaper ones?",
	})

	assert.NoError(t, err)
	assert.Equal(t, convID, result.ConversationID)
	f.convRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestChatService_Send_ForeignConversation(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	convID := uuid.New()

	f.convRepo.On("Get", ctx, convID).Return(&domain.Conversation{
		ID:     convID,
		UserID: uuid.New(),
		Status: domain.ConversationActive,
	}, nil)

	_, err := f.svc.Send(ctx, domain.ChatRequest{
		UserID:         uuid.New(),
		ConversationID: &convID,
		Message:        "hi",
	})

	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	f.msgRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestChatService_Send_DeletedConversation(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	userID := uuid.New()
	convID := uuid.New()

	f.convRepo.On("Get", ctx, convID).Return(&domain.Conversation{
		ID:     convID,
		UserID: userID,
		Status: domain.ConversationDeleted,
	}, nil)

	_, err := f.svc.Send(ctx, domain.ChatRequest{
		UserID:         userID,
		ConversationID: &convID,
		Message:        "hi",
	})

	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestChatService_Send_CatalogFailure(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.expectIntent(`{"intent": "search", "keywords": ["laptop"]}`)
	f.catalog.On("SearchProducts", mock.Anything, []string{"laptop"}, 20).
		Return(nil, errors.New("connection refused"))
	f.convRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Send(ctx, domain.ChatRequest{UserID: uuid.New(), Message: "find a laptop"})

	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestChatService_Send_AssistantWriteRetriedOnce(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.expectIntent(`{"intent": "general", "keywords": []}`)
	f.expectComposition("Hello!")
	f.convRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.convRepo.On("Touch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	f.msgRepo.On("Create", mock.Anything, userMessages(domain.RoleUser)).Return(nil).Once()
	f.msgRepo.On("Create", mock.Anything, userMessages(domain.RoleAssistant)).Return(errors.New("deadlock")).Once()
	f.msgRepo.On("Create", mock.Anything, userMessages(domain.RoleAssistant)).Return(nil).Once()

	result, err := f.svc.Send(ctx, domain.ChatRequest{UserID: uuid.New(), Message: "hello"})

	assert.NoError(t, err)
	assert.Equal(t, "Hello!", result.AssistantMessage.Content)
	f.msgRepo.AssertExpectations(t)
}

func TestChatService_Send_AssistantWriteFailsTwice(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.expectIntent(`{"intent": "general", "keywords": []}`)
	f.expectComposition("Hello!")
	f.convRepo.On("Create", ctx, mock.Anything).Return(nil)

	f.msgRepo.On("Create", mock.Anything, userMessages(domain.RoleUser)).Return(nil).Once()
	f.msgRepo.On("Create", mock.Anything, userMessages(domain.RoleAssistant)).Return(errors.New("deadlock")).Twice()

	_, err := f.svc.Send(ctx, domain.ChatRequest{UserID: uuid.New(), Message: "hello"})

	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestChatService_SendStream(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.expectIntent(`{"intent": "search", "keywords": ["headphones"]}`)
	f.provider.On("StreamComplete", mock.Anything, mock.Anything, "test-model", mock.Anything).
		Return(&llm.Response{Content: "Best pick: Baseline."}, nil, []string{"Best pick: ", "Baseline."})
	f.catalog.On("SearchProducts", mock.Anything, []string{"headphones"}, 20).
		Return([]domain.ProductMatch{match("Baseline", 49.99, true)}, nil)
	f.convRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.convRepo.On("Touch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	var assistantMeta *domain.MessageMetadata
	f.msgRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		if m.Role == domain.RoleAssistant {
			assistantMeta = m.Metadata
		}
		return true
	})).Return(nil)

	var chunks []domain.StreamChunk
	err := f.svc.SendStream(ctx, domain.ChatRequest{UserID: uuid.New(), Message: "find headphones"}, func(c domain.StreamChunk) {
		chunks = append(chunks, c)
	})

	assert.NoError(t, err)
	if assert.Len(t, chunks, 4) {
		assert.Equal(t, domain.ChunkProducts, chunks[0].Type)
		assert.Len(t, chunks[0].Products, 1)
		assert.Equal(t, domain.ChunkMessage, chunks[1].Type)
		assert.Equal(t, "Best pick: ", chunks[1].Content)
		assert.Equal(t, domain.ChunkMessage, chunks[2].Type)
		assert.Equal(t, domain.ChunkDone, chunks[3].Type)
	}

	if assert.NotNil(t, assistantMeta) {
		assert.True(t, assistantMeta.Streaming)
		assert.True(t, assistantMeta.Completed)
		assert.Equal(t, 1, assistantMeta.ProductsFound)
	}
}

func TestChatService_SendStream_CatalogFailure(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.expectIntent(`{"intent": "search", "keywords": ["laptop"]}`)
	f.catalog.On("SearchProducts", mock.Anything, []string{"laptop"}, 20).
		Return(nil, errors.New("connection refused"))
	f.convRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.convRepo.On("Touch", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	var chunks []domain.StreamChunk
	err := f.svc.SendStream(ctx, domain.ChatRequest{UserID: uuid.New(), Message: "find a laptop"}, func(c domain.StreamChunk) {
		chunks = append(chunks, c)
	})

	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	if assert.Len(t, chunks, 2) {
		assert.Equal(t, domain.ChunkError, chunks[0].Type)
		assert.Equal(t, domain.ChunkDone, chunks[1].Type)
	}
}

func TestChatService_SendStream_PersistsPartialOnInterrupt(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.expectIntent(`{"intent": "general", "keywords": []}`)
	f.provider.On("StreamComplete", mock.Anything, mock.Anything, "test-model", mock.Anything).
		Return(&llm.Response{Content: "Partial answ"}, context.Canceled, []string{"Partial answ"})
	f.convRepo.On("Create", ctx, mock.Anything).Return(nil)
	f.convRepo.On("Touch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	var assistantMeta *domain.MessageMetadata
	var assistantContent string
	f.msgRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		if m.Role == domain.RoleAssistant {
			assistantMeta = m.Metadata
			assistantContent = m.Content
		}
		return true
	})).Return(nil)

	var chunks []domain.StreamChunk
	err := f.svc.SendStream(ctx, domain.ChatRequest{UserID: uuid.New(), Message: "hello"}, func(c domain.StreamChunk) {
		chunks = append(chunks, c)
	})

	assert.Error(t, err)
	assert.Equal(t, "Partial answ", assistantContent)
	if assert.NotNil(t, assistantMeta) {
		assert.True(t, assistantMeta.Streaming)
		assert.False(t, assistantMeta.Completed)
	}
	// Error chunk precedes the final done chunk.
	if assert.GreaterOrEqual(t, len(chunks), 2) {
		assert.Equal(t, domain.ChunkError, chunks[len(chunks)-2].Type)
		assert.Equal(t, domain.ChunkDone, chunks[len(chunks)-1].Type)
	}
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", truncateTitle("short", 50))
	assert.Equal(t, strings.Repeat("a", 50), truncateTitle(strings.Repeat("a", 80), 50))
	// Multibyte runes are never split.
	assert.Equal(t, "héllo", truncateTitle("héllo", 5))
}
