package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// HarvesterDeps wires the harvester's collaborators.
type HarvesterDeps struct {
	Store   ports.ArticleStore
	Fetcher ports.FeedFetcher
	Sources []domain.FeedSource
	Logger  *slog.Logger

	Concurrency     int
	MaxPerFeed      int
	FreshnessWindow time.Duration
	Retention       time.Duration

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Harvester polls the registered feeds and writes new article stubs in
// pending state. Duplicate suppression is the URL existence check alone, so
// overlapping harvest runs are safe: a lost race rewrites identical content.
type Harvester struct {
	store   ports.ArticleStore
	fetcher ports.FeedFetcher
	sources []domain.FeedSource
	logger  *slog.Logger

	concurrency int
	maxPerFeed  int
	freshness   time.Duration
	retention   time.Duration
	now         func() time.Time
}

// NewHarvester constructs the harvester, applying defaults for unset knobs.
func NewHarvester(deps HarvesterDeps) *Harvester {
	h := &Harvester{
		store:       deps.Store,
		fetcher:     deps.Fetcher,
		sources:     deps.Sources,
		logger:      deps.Logger,
		concurrency: deps.Concurrency,
		maxPerFeed:  deps.MaxPerFeed,
		freshness:   deps.FreshnessWindow,
		retention:   deps.Retention,
		now:         deps.Now,
	}
	if h.concurrency <= 0 {
		h.concurrency = 4
	}
	if h.maxPerFeed <= 0 {
		h.maxPerFeed = 12
	}
	if h.freshness <= 0 {
		h.freshness = 48 * time.Hour
	}
	if h.retention <= 0 {
		h.retention = 7 * 24 * time.Hour
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Harvest fetches every registered feed and persists unseen entries as
// pending stubs. A failing feed is logged and counted but never aborts the
// run; a store error does, since nothing can be guaranteed without the store.
func (h *Harvester) Harvest(ctx context.Context) (domain.HarvestReport, error) {
	var (
		mu     sync.Mutex
		report domain.HarvestReport
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)

	for _, source := range h.sources {
		source := source
		g.Go(func() error {
			new_, dup, err := h.harvestFeed(ctx, source)
			mu.Lock()
			defer mu.Unlock()
			report.New += new_
			report.Duplicates += dup
			if err != nil {
				if ctx.Err() != nil || isStoreErr(err) {
					return err
				}
				report.Errors++
				h.warn("feed harvest failed", "feed", source.FeedURL, "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("harvest: %w", err)
	}

	h.info("harvest complete", "new", report.New, "duplicates", report.Duplicates, "errors", report.Errors)
	return report, nil
}

func (h *Harvester) harvestFeed(ctx context.Context, source domain.FeedSource) (newCount, dupCount int, err error) {
	entries, err := h.fetcher.Fetch(ctx, source.FeedURL)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch: %w", err)
	}

	cutoff := h.now().UTC().Add(-h.freshness)
	for _, entry := range entries {
		if newCount >= h.maxPerFeed {
			break
		}
		if entry.PublishedAt.Before(cutoff) {
			continue
		}

		exists, err := h.store.Exists(ctx, entry.URL)
		if err != nil {
			return newCount, dupCount, storeErr(fmt.Errorf("exists %s: %w", entry.URL, err))
		}
		if exists {
			dupCount++
			continue
		}

		now := h.now().UTC()
		stub := domain.Article{
			URL:         entry.URL,
			Headline:    entry.Headline,
			RawContent:  entry.Content,
			Category:    source.Category,
			PublishedAt: entry.PublishedAt,
			SourcePrior: source.Prior,
			CreatedAt:   now,
			ExpireAt:    now.Add(h.retention),
			Status:      domain.StatusPending,
			TopicTags:   []string{source.Category},
		}
		if source.Category == "" {
			stub.TopicTags = nil
		}

		if err := h.store.Put(ctx, stub); err != nil {
			return newCount, dupCount, storeErr(fmt.Errorf("put %s: %w", entry.URL, err))
		}
		newCount++
	}

	return newCount, dupCount, nil
}

func (h *Harvester) info(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Info(msg, args...)
	}
}

func (h *Harvester) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
