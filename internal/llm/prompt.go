package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every composition call
const SystemPrompt = `You are a helpful AI shopping assistant for a European price comparison platform.

Your role:
- Help users find the best prices for products across online stores
- Provide personalized gift recommendations
- Compare products and explain differences
- Be conversational and friendly
- Always mention prices in EUR (€)

When product information from the database is provided:
1. Always name the cheapest product first, with its exact price and store
2. Mention how many matching products and offers were found
3. Consider the user's budget and preferences

When no products matched a shopping question:
- Say so plainly and ask one clarifying question (budget, category or brand)

Be concise but helpful.`

// BuildIntentPrompt creates the intent-extraction prompt for a user message
func BuildIntentPrompt(message string) string {
	return fmt.Sprintf(`Analyze this user message and extract shopping intent:
%q

Return ONLY a JSON object with:
- "intent": one of ["search", "gift", "compare", "general"]
- "keywords": main product keywords as an array of short strings
- "category": product category (Electronics, Home & Kitchen, etc), or omit
- "budget": max budget as a number if mentioned, or omit entirely

Example: {"intent": "search", "keywords": ["headphones", "wireless"], "category": "Electronics", "budget": 100}`, message)
}

// ContextProduct is one resolved product rendered into composer context
type ContextProduct struct {
	Name       string
	Brand      string
	BestPrice  float64
	StoreName  string
	OfferCount int
}

// BuildProductContext renders resolved products into a context block for
// the composer. Products arrive cheapest first.
func BuildProductContext(products []ContextProduct) string {
	if len(products) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Product information from database (%d results):\n", len(products))
	for _, p := range products {
		if p.StoreName != "" {
			fmt.Fprintf(&b, "- %s by %s: best price €%.2f at %s (%d offers)\n",
				p.Name, orUnknown(p.Brand), p.BestPrice, p.StoreName, p.OfferCount)
		} else {
			fmt.Fprintf(&b, "- %s by %s: no offers on record\n", p.Name, orUnknown(p.Brand))
		}
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// ExtractJSON pulls the first top-level JSON object out of an LLM response,
// tolerating markdown fences and prose around it.
func ExtractJSON(content string) string {
	content = stripCodeFence(content)

	start := strings.IndexByte(content, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

func stripCodeFence(content string) string {
	for _, marker := range []string{"```json", "```"} {
		if idx := strings.Index(content, marker); idx != -1 {
			rest := content[idx+len(marker):]
			if end := strings.Index(rest, "```"); end != -1 {
				return strings.TrimSpace(rest[:end])
			}
		}
	}
	return strings.TrimSpace(content)
}
