package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsAggregator/internal/ports"
)

const maxContentLength = 5000

// Phrases that indicate a paywall or bot wall instead of article text.
var blockingPhrases = []string{
	"enable javascript",
	"disable ad blocker",
	"turn off your ad blocker",
	"subscribe to read",
	"subscription required",
	"sign in to continue",
	"you have reached your limit",
	"access to this content is restricted",
	"please enable cookies",
}

// PageScraper extracts readable paragraph text from article pages.
type PageScraper struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.Scraper = (*PageScraper)(nil)

// NewPageScraper wires an HTTP client; a nil client gets a 10s-timeout default.
func NewPageScraper(client *http.Client, logger *slog.Logger) *PageScraper {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PageScraper{client: client, logger: logger}
}

// Scrape fetches the page and joins its paragraph text. Any failure, thin
// result, or blocked-content marker falls back to the provided text; the
// caller always gets something usable back.
func (s *PageScraper) Scrape(ctx context.Context, pageURL, fallback string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fallback
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; NewsAggregator/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		s.debug("scrape request failed", "url", pageURL, "error", err)
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.debug("scrape non-200", "url", pageURL, "status", resp.Status)
		return fallback
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fallback
	}

	doc.Find("script, style, nav, footer, header").Remove()

	var parts []string
	doc.Find("p").Each(func(i int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	text := strings.Join(parts, " ")
	if len(text) > maxContentLength {
		text = text[:maxContentLength]
	}

	if blocked(text) {
		s.debug("scrape content blocked or too short", "url", pageURL, "length", len(text))
		return fallback
	}

	return text
}

func blocked(text string) bool {
	if len(text) < 200 {
		return true
	}
	lower := strings.ToLower(text)
	for _, phrase := range blockingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func (s *PageScraper) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
