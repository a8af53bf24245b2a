package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/pricely/backend/internal/config"
	"github.com/pricely/backend/internal/llm"
)

type Provider struct {
	apiKey string
	model  string
}

func NewProvider(cfg config.GeminiConfig) *Provider {
	return &Provider{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) AvailableModels() []string {
	return []string{
		"gemini-2.5-flash",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
	}
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return "gemini-2.5-flash"
}

func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

// Complete runs a single-turn chat completion
func (p *Provider) Complete(ctx context.Context, messages []llm.Message, model string) (*llm.Response, error) {
	session, client, err := p.newSession(ctx, messages, model)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	start := time.Now()
	resp, err := session.chat.SendMessage(ctx, genai.Text(session.last))
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	output := flattenCandidates(resp)
	if output == "" {
		return nil, fmt.Errorf("empty response from gemini")
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &llm.Response{
		Content:    output,
		Model:      session.model,
		TokensUsed: tokensUsed,
		LatencyMs:  latency,
	}, nil
}

// StreamComplete runs a streaming completion
func (p *Provider) StreamComplete(ctx context.Context, messages []llm.Message, model string, onDelta func(delta string)) (*llm.Response, error) {
	session, client, err := p.newSession(ctx, messages, model)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	start := time.Now()
	iter := session.chat.SendMessageStream(ctx, genai.Text(session.last))

	var full strings.Builder
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gemini stream error: %w", err)
		}
		delta := flattenCandidates(resp)
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}

	return &llm.Response{
		Content:   full.String(),
		Model:     session.model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

type chatSession struct {
	chat  *genai.ChatSession
	last  string
	model string
}

// newSession maps generic chat messages onto a genai chat: system turns
// become the system instruction, prior turns become history, and the final
// user turn is what gets sent.
func (p *Provider) newSession(ctx context.Context, messages []llm.Message, model string) (*chatSession, *genai.Client, error) {
	if !p.IsConfigured() {
		return nil, nil, fmt.Errorf("gemini provider is not configured (missing API key)")
	}
	if model == "" {
		model = p.DefaultModel()
	}
	if len(messages) == 0 {
		return nil, nil, fmt.Errorf("no messages")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	generativeModel := client.GenerativeModel(model)
	var temperature float32 = 0.7
	generativeModel.Temperature = &temperature

	var system []string
	var history []*genai.Content
	last := messages[len(messages)-1].Content

	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			history = append(history, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		default:
			history = append(history, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		}
	}

	if len(system) > 0 {
		generativeModel.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))},
		}
	}

	chat := generativeModel.StartChat()
	chat.History = history

	return &chatSession{chat: chat, last: last, model: model}, client, nil
}

func flattenCandidates(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
