package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/infrastructure/storage"
	"NewsAggregator/internal/ports"
)

// fakeFetcher serves canned entries per feed URL and fails for URLs in errs.
type fakeFetcher struct {
	entries map[string][]ports.FeedEntry
	errs    map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, feedURL string) ([]ports.FeedEntry, error) {
	if err, ok := f.errs[feedURL]; ok {
		return nil, err
	}
	return f.entries[feedURL], nil
}

// fakeAnalyzer returns a fixed analysis, optionally failing the first N calls
// per URL-independent counter, and records concurrent invocations.
type fakeAnalyzer struct {
	mu       sync.Mutex
	analysis domain.Analysis
	err      error
	calls    int
	inFlight int
	maxSeen  int
	delay    time.Duration
	seen     map[string]int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) (domain.Analysis, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	if f.seen == nil {
		f.seen = map[string]int{}
	}
	f.seen[text]++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if f.err != nil {
		return domain.Analysis{}, f.err
	}
	return f.analysis, nil
}

var errAnalyzeBoom = errors.New("model exploded")

func pendingArticle(url string, createdAt time.Time) domain.Article {
	return domain.Article{
		URL:        url,
		Headline:   "headline for " + url,
		RawContent: "raw content long enough to skip scraping: " + url,
		Category:   "Politics",
		Status:     domain.StatusPending,
		CreatedAt:  createdAt,
		ExpireAt:   createdAt.Add(7 * 24 * time.Hour),
		TopicTags:  []string{"Politics"},
	}
}

func newStoreWith(articles ...domain.Article) *storage.MemoryStore {
	store := storage.NewMemoryStore()
	for _, a := range articles {
		_ = store.Put(context.Background(), a)
	}
	return store
}

func defaultAnalysis() domain.Analysis {
	return domain.Analysis{
		TLDR: "Quick summary.",
		Detailed: domain.DetailedSummary{
			WhatHappened: "Something happened.",
			Impact:       "It mattered.",
			Conclusion:   "It concluded.",
		},
		TopicTags:  []string{"Politics", "Economy"},
		Keywords:   []string{"budget", "vote"},
		BiasSignal: domain.BiasCenter,
	}
}
