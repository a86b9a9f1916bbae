package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// ErrAnalysis wraps transient analysis failures (upstream errors, timeouts,
// malformed model output). Callers treat these as retryable per item.
var ErrAnalysis = errors.New("analysis failed")

const maxAnalysisInput = 4000

const analyzerSystemPrompt = "You analyze news articles and respond with strict JSON only."

const analyzerPromptFormat = `Analyze the following news article text and provide a structured summary.

Article Text:
%s

Output must be valid JSON with the following fields:
- "tldr": a 2-3 sentence quick summary (max 50 words).
- "what_happened": the factual core of the story (2-3 sentences).
- "impact": reactions and consequences (2-3 sentences).
- "conclusion": a short closing assessment (1-2 sentences).
- "bias_label": one of "Left", "Lean Left", "Center", "Lean Right", "Right".
- "topic_tags": a list of 3-5 relevant tags.
- "keywords": a list of 5-8 lowercase search keywords.

JSON Output:`

// Analyzer implements ports.Analyzer on top of the chat-completions client.
type Analyzer struct {
	client *Client
}

var _ ports.Analyzer = (*Analyzer)(nil)

// NewAnalyzer wires the shared LLM client.
func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze sends the article text for analysis and parses the structured
// response. All failures are wrapped in ErrAnalysis.
func (a *Analyzer) Analyze(ctx context.Context, text string) (domain.Analysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Analysis{}, fmt.Errorf("%w: empty input", ErrAnalysis)
	}
	if len(text) > maxAnalysisInput {
		text = text[:maxAnalysisInput]
	}

	raw, err := a.client.complete(ctx, analyzerSystemPrompt, fmt.Sprintf(analyzerPromptFormat, text))
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	var payload struct {
		TLDR         string   `json:"tldr"`
		WhatHappened string   `json:"what_happened"`
		Impact       string   `json:"impact"`
		Conclusion   string   `json:"conclusion"`
		BiasLabel    string   `json:"bias_label"`
		TopicTags    []string `json:"topic_tags"`
		Keywords     []string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return domain.Analysis{}, fmt.Errorf("%w: malformed response: %v", ErrAnalysis, err)
	}
	if strings.TrimSpace(payload.TLDR) == "" {
		return domain.Analysis{}, fmt.Errorf("%w: response missing tldr", ErrAnalysis)
	}

	return domain.Analysis{
		TLDR: strings.TrimSpace(payload.TLDR),
		Detailed: domain.DetailedSummary{
			WhatHappened: strings.TrimSpace(payload.WhatHappened),
			Impact:       strings.TrimSpace(payload.Impact),
			Conclusion:   strings.TrimSpace(payload.Conclusion),
		}.Normalize(),
		TopicTags:  cleanList(payload.TopicTags),
		Keywords:   cleanList(payload.Keywords),
		BiasSignal: domain.ParseBias(payload.BiasLabel),
	}, nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
