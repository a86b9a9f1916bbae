package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsAggregator/internal/ports"
)

// Fetcher retrieves RSS/Atom documents over HTTP and normalizes their entries.
type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// NewFetcher builds a fetcher; timeout defaults to 20s.
func NewFetcher(client *http.Client, timeout time.Duration) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = "NewsAggregator/1.0"
	if client != nil {
		parser.Client = client
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{parser: parser, timeout: timeout}
}

// Fetch downloads and parses one feed into normalized entries. Entries
// without a link, a title, or any parseable timestamp are dropped.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]ports.FeedEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	entries := make([]ports.FeedEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entry := ports.FeedEntry{
			URL:      strings.TrimSpace(item.Link),
			Headline: strings.TrimSpace(item.Title),
			Content:  entryContent(item),
		}
		if entry.URL == "" || entry.Headline == "" {
			continue
		}

		if item.PublishedParsed != nil {
			entry.PublishedAt = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			entry.PublishedAt = item.UpdatedParsed.UTC()
		} else {
			continue
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func entryContent(item *gofeed.Item) string {
	if content := strings.TrimSpace(item.Content); content != "" {
		return content
	}
	return strings.TrimSpace(item.Description)
}
