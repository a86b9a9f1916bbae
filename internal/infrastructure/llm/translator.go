package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

const translatorSystemPrompt = "You translate user search queries into structured filters for a news database. Respond with strict JSON only."

const translatorPromptFormat = `Translate the following user search query into structured filters.
Query: %q

Available fields:
- "keywords": list of lowercase strings
- "topic_tags": list of strings (e.g. "Politics", "Sports", "Technology")
- "bias_label": one of "Left", "Lean Left", "Center", "Lean Right", "Right", or null

Output JSON format:
{"keywords": ["..."], "topic_tags": ["..."], "bias_label": null}`

// Translator converts natural-language search queries into SearchFilters.
type Translator struct {
	client *Client
}

var _ ports.QueryTranslator = (*Translator)(nil)

// NewTranslator wires the shared LLM client.
func NewTranslator(client *Client) *Translator {
	return &Translator{client: client}
}

// Translate asks the model for structured filters. When the model is
// unavailable or answers garbage the query degrades to a keyword-only filter
// instead of failing the search.
func (t *Translator) Translate(ctx context.Context, query string) (domain.SearchFilters, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.SearchFilters{}, nil
	}

	fallback := domain.SearchFilters{Keywords: []string{strings.ToLower(query)}}

	raw, err := t.client.complete(ctx, translatorSystemPrompt, fmt.Sprintf(translatorPromptFormat, query))
	if err != nil {
		return fallback, nil
	}

	var payload struct {
		Keywords  []string `json:"keywords"`
		TopicTags []string `json:"topic_tags"`
		BiasLabel string   `json:"bias_label"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return fallback, nil
	}

	filters := domain.SearchFilters{
		Keywords:  cleanList(payload.Keywords),
		TopicTags: cleanList(payload.TopicTags),
		Bias:      domain.ParseBias(payload.BiasLabel),
	}
	if len(filters.Keywords) == 0 && len(filters.TopicTags) == 0 && filters.Bias == domain.BiasUnknown {
		return fallback, nil
	}
	return filters, nil
}
