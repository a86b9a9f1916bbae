package usecase

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// similarityScanLimit caps how many recent analyzed articles one similarity
// lookup considers.
const similarityScanLimit = 500

// SimilarityMatcher finds analyzed articles covering the same event across
// different outlets.
type SimilarityMatcher struct {
	store ports.ArticleStore
	limit int
}

// NewSimilarityMatcher wires the store; maxResults caps the returned
// sequence (0 means no cap).
func NewSimilarityMatcher(store ports.ArticleStore, maxResults int) *SimilarityMatcher {
	return &SimilarityMatcher{store: store, limit: maxResults}
}

type scoredArticle struct {
	article domain.Article
	overlap int
}

// FindSimilar returns analyzed articles sharing at least one topic tag or
// keyword with the target, from a different hostname, ranked by overlap
// count descending with fresher coverage winning ties. An empty result is a
// normal outcome, never an error.
func (m *SimilarityMatcher) FindSimilar(ctx context.Context, target domain.Article) ([]domain.Article, error) {
	terms := make(map[string]struct{}, len(target.TopicTags)+len(target.Keywords))
	for _, t := range target.TopicTags {
		terms[normalizeTerm(t)] = struct{}{}
	}
	for _, k := range target.Keywords {
		terms[normalizeTerm(k)] = struct{}{}
	}
	delete(terms, "")
	if len(terms) == 0 {
		return nil, nil
	}

	candidates, err := m.store.Query(ctx, ports.ArticleQuery{
		Statuses: []domain.ProcessingStatus{domain.StatusAnalyzed},
		Order:    ports.OrderCreatedDesc,
		Limit:    similarityScanLimit,
	})
	if err != nil {
		return nil, storeErr(fmt.Errorf("query candidates: %w", err))
	}

	targetHost := hostname(target.URL)

	var scored []scoredArticle
	for _, candidate := range candidates {
		if candidate.URL == target.URL {
			continue
		}
		// Same outlet is not another source.
		if targetHost != "" && hostname(candidate.URL) == targetHost {
			continue
		}

		overlap := 0
		for _, t := range candidate.TopicTags {
			if _, ok := terms[normalizeTerm(t)]; ok {
				overlap++
			}
		}
		for _, k := range candidate.Keywords {
			if _, ok := terms[normalizeTerm(k)]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		scored = append(scored, scoredArticle{article: candidate, overlap: overlap})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].overlap != scored[j].overlap {
			return scored[i].overlap > scored[j].overlap
		}
		return scored[i].article.CreatedAt.After(scored[j].article.CreatedAt)
	})

	if m.limit > 0 && len(scored) > m.limit {
		scored = scored[:m.limit]
	}

	result := make([]domain.Article, 0, len(scored))
	for _, s := range scored {
		result = append(result, s.article)
	}
	return result, nil
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func hostname(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
