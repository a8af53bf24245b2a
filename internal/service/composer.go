package service

import (
	"context"
	"time"

	"github.com/pricely/backend/internal/domain"
	"github.com/pricely/backend/internal/llm"
	"github.com/rs/zerolog/log"
)

// ApologyFallback is returned when no LLM provider can produce a reply.
// The pipeline never surfaces an LLM failure to the user as an error.
const ApologyFallback = "I'm sorry, I'm having trouble answering right now. Please try again in a moment."

// ComposerService turns resolved products and conversation history into
// the assistant's natural-language reply.
type ComposerService struct {
	llmRouter    *llm.Router
	historyLimit int
	llmTimeout   time.Duration
}

// NewComposerService creates a new composer service
func NewComposerService(llmRouter *llm.Router, historyLimit int, llmTimeout time.Duration) *ComposerService {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	if llmTimeout <= 0 {
		llmTimeout = 30 * time.Second
	}
	return &ComposerService{
		llmRouter:    llmRouter,
		historyLimit: historyLimit,
		llmTimeout:   llmTimeout,
	}
}

// Compose produces the assistant reply in one shot. It degrades to a
// static apology instead of returning an error.
func (s *ComposerService) Compose(ctx context.Context, userMessage string, history []domain.Message, products []domain.ProductMatch) string {
	provider, err := s.llmRouter.GetProvider(s.llmRouter.DefaultProvider())
	if err != nil || !provider.IsConfigured() {
		log.Warn().Err(err).Msg("no configured LLM provider for composition")
		return ApologyFallback
	}

	callCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	resp, err := provider.Complete(callCtx, s.buildMessages(userMessage, history, products), provider.DefaultModel())
	if err != nil || resp.Content == "" {
		log.Error().Err(err).Str("provider", provider.Name()).Msg("composition failed")
		return ApologyFallback
	}
	return resp.Content
}

// ComposeStream produces the reply incrementally, invoking onDelta for
// each fragment. It returns the accumulated content. A provider failure
// before any delta falls back to the apology (delivered through onDelta);
// a failure mid-stream returns the partial content and the error.
func (s *ComposerService) ComposeStream(ctx context.Context, userMessage string, history []domain.Message, products []domain.ProductMatch, onDelta func(delta string)) (string, error) {
	provider, err := s.llmRouter.GetProvider(s.llmRouter.DefaultProvider())
	if err != nil || !provider.IsConfigured() {
		log.Warn().Err(err).Msg("no configured LLM provider for streaming composition")
		onDelta(ApologyFallback)
		return ApologyFallback, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	var streamed bool
	resp, err := provider.StreamComplete(callCtx, s.buildMessages(userMessage, history, products), provider.DefaultModel(), func(delta string) {
		streamed = true
		onDelta(delta)
	})
	if err != nil {
		log.Error().Err(err).Str("provider", provider.Name()).Msg("streaming composition failed")
		if !streamed {
			onDelta(ApologyFallback)
			return ApologyFallback, nil
		}
		partial := ""
		if resp != nil {
			partial = resp.Content
		}
		return partial, err
	}
	return resp.Content, nil
}

// buildMessages assembles the completion transcript: system prompt,
// product context, recent history oldest first, then the current message.
func (s *ComposerService) buildMessages(userMessage string, history []domain.Message, products []domain.ProductMatch) []llm.Message {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: llm.SystemPrompt}}

	if ctxBlock := llm.BuildProductContext(toContextProducts(products)); ctxBlock != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: ctxBlock})
	}

	start := 0
	if len(history) > s.historyLimit {
		start = len(history) - s.historyLimit
	}
	for _, msg := range history[start:] {
		role := llm.RoleUser
		if msg.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
}

func toContextProducts(products []domain.ProductMatch) []llm.ContextProduct {
	out := make([]llm.ContextProduct, 0, len(products))
	for _, p := range products {
		cp := llm.ContextProduct{
			Name:       p.Name,
			Brand:      p.Brand,
			OfferCount: p.OfferCount,
		}
		if p.BestPrice != nil {
			cp.BestPrice = p.BestPrice.Price
			cp.StoreName = p.BestPrice.StoreName
		}
		out = append(out, cp)
	}
	return out
}
