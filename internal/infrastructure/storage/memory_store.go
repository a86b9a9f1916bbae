package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// MemoryStore is a map-backed ArticleStore. It backs tests and runs without
// a configured DSN; it honors the same claim semantics as the Postgres store.
type MemoryStore struct {
	mu       sync.Mutex
	articles map[string]domain.Article
}

var _ ports.ArticleStore = (*MemoryStore)(nil)

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{articles: make(map[string]domain.Article)}
}

// Get loads one article by URL.
func (s *MemoryStore) Get(ctx context.Context, url string) (domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.articles[url]
	if !ok {
		return domain.Article{}, ports.ErrNotFound
	}
	return article, nil
}

// Put stores the article, overwriting any previous record for the URL.
func (s *MemoryStore) Put(ctx context.Context, article domain.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.articles[article.URL] = article
	return nil
}

// Exists reports whether the URL is known.
func (s *MemoryStore) Exists(ctx context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.articles[url]
	return ok, nil
}

// Query filters and orders the stored articles.
func (s *MemoryStore) Query(ctx context.Context, q ports.ArticleQuery) ([]domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.Article
	for _, article := range s.articles {
		if len(q.Statuses) > 0 && !statusIn(article.Status, q.Statuses) {
			continue
		}
		if !q.CreatedBefore.IsZero() && !article.CreatedAt.Before(q.CreatedBefore) {
			continue
		}
		if !q.CreatedAfter.IsZero() && article.CreatedAt.Before(q.CreatedAfter) {
			continue
		}
		result = append(result, article)
	}

	sort.Slice(result, func(i, j int) bool {
		if q.Order == ports.OrderCreatedAsc {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

// Claim marks a pending, unclaimed article as owned by owner.
func (s *MemoryStore) Claim(ctx context.Context, url, owner string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.articles[url]
	if !ok || article.Status != domain.StatusPending {
		return false, nil
	}
	if article.ClaimedBy != "" && time.Since(article.ClaimedAt) < ttl {
		return false, nil
	}

	article.ClaimedBy = owner
	article.ClaimedAt = time.Now().UTC()
	s.articles[url] = article
	return true, nil
}

// Release clears a claim held by owner.
func (s *MemoryStore) Release(ctx context.Context, url, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.articles[url]
	if !ok || article.ClaimedBy != owner {
		return nil
	}

	article.ClaimedBy = ""
	article.ClaimedAt = time.Time{}
	s.articles[url] = article
	return nil
}

func statusIn(status domain.ProcessingStatus, set []domain.ProcessingStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
