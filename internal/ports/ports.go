package ports

import (
	"context"
	"errors"
	"time"

	"NewsAggregator/internal/domain"
)

// ErrNotFound is returned by stores when no article exists for a URL.
var ErrNotFound = errors.New("article not found")

// SortOrder selects how query results are ordered by creation time.
type SortOrder int

const (
	OrderCreatedDesc SortOrder = iota
	OrderCreatedAsc
)

// ArticleQuery narrows a store scan. Zero fields mean "no constraint".
type ArticleQuery struct {
	Statuses      []domain.ProcessingStatus
	CreatedBefore time.Time
	CreatedAfter  time.Time
	Order         SortOrder
	Limit         int
}

// ArticleStore persists articles keyed by URL. All writes are single-record;
// implementations must provide point read-after-write consistency per key.
type ArticleStore interface {
	Get(ctx context.Context, url string) (domain.Article, error)
	Put(ctx context.Context, article domain.Article) error
	Exists(ctx context.Context, url string) (bool, error)
	Query(ctx context.Context, q ArticleQuery) ([]domain.Article, error)

	// Claim marks a pending article as in-flight for owner. It succeeds only
	// if the article is pending and unclaimed (or its claim expired past
	// ttl), and is the sole mutual-exclusion mechanism between concurrent
	// enrichers.
	Claim(ctx context.Context, url, owner string, ttl time.Duration) (bool, error)
	// Release clears a claim held by owner; releasing a claim someone else
	// holds is a no-op.
	Release(ctx context.Context, url, owner string) error
}

// FeedEntry is one normalized item parsed out of a feed document.
type FeedEntry struct {
	URL         string
	Headline    string
	Content     string
	PublishedAt time.Time
}

// FeedFetcher retrieves and parses one RSS/Atom feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]FeedEntry, error)
}

// Analyzer runs AI analysis over article text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (domain.Analysis, error)
}

// Scraper pulls readable full text from an article page, falling back to the
// provided text when the page is blocked or too thin.
type Scraper interface {
	Scrape(ctx context.Context, pageURL, fallback string) string
}

// QueryTranslator converts a natural-language search query into structured
// filters.
type QueryTranslator interface {
	Translate(ctx context.Context, query string) (domain.SearchFilters, error)
}

// Notifier publishes digests of newly analyzed articles.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipeline cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
