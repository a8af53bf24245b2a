package service

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pricely/backend/internal/domain"
	"github.com/pricely/backend/internal/llm"
	"github.com/rs/zerolog/log"
)

// intentHistoryTurns caps how many prior turns accompany the extraction
// prompt. Enough for follow-ups like "and cheaper ones?" to resolve.
const intentHistoryTurns = 4

// IntentService extracts structured shopping intent from free-text
// messages. Extraction never fails: when the LLM is unreachable or
// returns garbage, a heuristic fallback takes over.
type IntentService struct {
	llmRouter  *llm.Router
	llmTimeout time.Duration
}

// NewIntentService creates a new intent service
func NewIntentService(llmRouter *llm.Router, llmTimeout time.Duration) *IntentService {
	if llmTimeout <= 0 {
		llmTimeout = 30 * time.Second
	}
	return &IntentService{llmRouter: llmRouter, llmTimeout: llmTimeout}
}

// Extract interprets a user message against the recent conversation
// history. The returned intent always has a valid Type and a nil or
// positive Budget.
func (s *IntentService) Extract(ctx context.Context, message string, history []domain.Message) domain.Intent {
	provider, err := s.llmRouter.GetProvider(s.llmRouter.DefaultProvider())
	if err != nil || !provider.IsConfigured() {
		log.Warn().Err(err).Msg("no configured LLM provider, using heuristic intent extraction")
		return heuristicIntent(message)
	}

	messages := make([]llm.Message, 0, intentHistoryTurns+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: "You extract structured shopping intent. Respond with JSON only."})
	start := 0
	if len(history) > intentHistoryTurns {
		start = len(history) - intentHistoryTurns
	}
	for _, msg := range history[start:] {
		role := llm.RoleUser
		if msg.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: llm.BuildIntentPrompt(message)})

	callCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	resp, err := provider.Complete(callCtx, messages, provider.DefaultModel())
	if err != nil {
		log.Warn().Err(err).Str("provider", provider.Name()).Msg("intent extraction failed, using heuristic fallback")
		return heuristicIntent(message)
	}

	intent, ok := parseIntent(resp.Content)
	if !ok {
		log.Warn().Str("provider", provider.Name()).Msg("unparsable intent response, using heuristic fallback")
		return heuristicIntent(message)
	}

	log.Debug().
		Str("intent", string(intent.Type)).
		Strs("keywords", intent.Keywords).
		Msg("extracted intent")
	return intent
}

// parseIntent decodes and sanitizes the LLM's JSON answer. Unknown intent
// values collapse to general, non-positive budgets are dropped.
func parseIntent(content string) (domain.Intent, bool) {
	raw := llm.ExtractJSON(content)
	if raw == "" {
		return domain.Intent{}, false
	}

	var payload struct {
		Intent   string   `json:"intent"`
		Keywords []string `json:"keywords"`
		Category string   `json:"category"`
		Budget   *float64 `json:"budget"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.Intent{}, false
	}

	intent := domain.Intent{
		Type:     domain.IntentGeneral,
		Category: strings.TrimSpace(payload.Category),
	}
	switch domain.IntentType(strings.ToLower(payload.Intent)) {
	case domain.IntentSearch:
		intent.Type = domain.IntentSearch
	case domain.IntentGift:
		intent.Type = domain.IntentGift
	case domain.IntentCompare:
		intent.Type = domain.IntentCompare
	}
	for _, kw := range payload.Keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			intent.Keywords = append(intent.Keywords, kw)
		}
	}
	if payload.Budget != nil && *payload.Budget > 0 {
		intent.Budget = payload.Budget
	}
	return intent, true
}

var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)under\s+€?\s*(\d+(?:[.,]\d+)?)`),
	regexp.MustCompile(`(?i)less\s+than\s+€?\s*(\d+(?:[.,]\d+)?)`),
	regexp.MustCompile(`(?i)max(?:imum)?\s+€?\s*(\d+(?:[.,]\d+)?)`),
	regexp.MustCompile(`(?i)up\s+to\s+€?\s*(\d+(?:[.,]\d+)?)`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:€|euros?|eur)\b`),
	regexp.MustCompile(`€\s*(\d+(?:[.,]\d+)?)`),
}

// stopwords excluded from heuristic keyword extraction. Covers question
// scaffolding and shopping verbs that never name a product.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "i": {}, "im": {}, "me": {}, "my": {},
	"is": {}, "are": {}, "am": {}, "be": {}, "do": {}, "does": {},
	"for": {}, "to": {}, "of": {}, "in": {}, "on": {}, "at": {}, "with": {},
	"and": {}, "or": {}, "but": {}, "not": {}, "no": {},
	"what": {}, "whats": {}, "which": {}, "where": {}, "how": {}, "can": {},
	"you": {}, "your": {}, "please": {}, "want": {}, "need": {}, "looking": {},
	"find": {}, "show": {}, "get": {}, "buy": {}, "search": {}, "searching": {},
	"cheap": {}, "cheapest": {}, "best": {}, "good": {}, "price": {}, "prices": {},
	"under": {}, "less": {}, "than": {}, "max": {}, "maximum": {}, "up": {},
	"euro": {}, "euros": {}, "eur": {},
	"gift": {}, "present": {}, "something": {}, "some": {}, "any": {},
	"hello": {}, "hi": {}, "hey": {}, "thanks": {}, "thank": {},
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// heuristicIntent is the LLM-free fallback. It classifies by trigger
// words, parses a budget from common phrasings and keeps the remaining
// content words as keywords.
func heuristicIntent(message string) domain.Intent {
	intent := domain.Intent{Type: domain.IntentGeneral}
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "gift") || strings.Contains(lower, "present for"):
		intent.Type = domain.IntentGift
	case strings.Contains(lower, "compare") || strings.Contains(lower, " vs ") || strings.Contains(lower, "difference between"):
		intent.Type = domain.IntentCompare
	case strings.Contains(lower, "cheap") || strings.Contains(lower, "price") ||
		strings.Contains(lower, "buy") || strings.Contains(lower, "find") ||
		strings.Contains(lower, "looking for") || strings.Contains(lower, "search"):
		intent.Type = domain.IntentSearch
	}

	for _, pattern := range budgetPatterns {
		if m := pattern.FindStringSubmatch(message); m != nil {
			amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
			if err == nil && amount > 0 {
				intent.Budget = &amount
				break
			}
		}
	}

	for _, token := range tokenPattern.FindAllString(lower, -1) {
		if _, skip := stopwords[token]; skip {
			continue
		}
		if _, err := strconv.ParseFloat(token, 64); err == nil {
			continue
		}
		if len(token) < 2 {
			continue
		}
		intent.Keywords = append(intent.Keywords, token)
	}

	// A budget or keywords on a general message still means the user is
	// shopping.
	if intent.Type == domain.IntentGeneral && intent.Budget != nil && len(intent.Keywords) > 0 {
		intent.Type = domain.IntentSearch
	}

	return intent
}
