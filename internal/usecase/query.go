package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// availableDatesScanLimit bounds how far back the date listing looks.
const availableDatesScanLimit = 500

// QueryService is the thin read side over stored article records.
type QueryService struct {
	store      ports.ArticleStore
	translator ports.QueryTranslator
}

// NewQueryService wires the store and the natural-language translator; a nil
// translator degrades Search to keyword matching on the raw query.
func NewQueryService(store ports.ArticleStore, translator ports.QueryTranslator) *QueryService {
	return &QueryService{store: store, translator: translator}
}

// FeedForDate returns analyzed articles whose ingestion day (UTC) matches
// date, newest first. A zero date returns the most recent articles overall.
func (q *QueryService) FeedForDate(ctx context.Context, date time.Time, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		limit = 50
	}

	query := ports.ArticleQuery{
		Statuses: []domain.ProcessingStatus{domain.StatusAnalyzed},
		Order:    ports.OrderCreatedDesc,
		Limit:    limit,
	}
	if !date.IsZero() {
		day := date.UTC().Truncate(24 * time.Hour)
		query.CreatedAfter = day
		query.CreatedBefore = day.Add(24 * time.Hour)
	}

	articles, err := q.store.Query(ctx, query)
	if err != nil {
		return nil, storeErr(fmt.Errorf("query feed: %w", err))
	}
	return articles, nil
}

// AvailableDates lists the distinct UTC days that have articles, descending.
func (q *QueryService) AvailableDates(ctx context.Context) ([]string, error) {
	articles, err := q.store.Query(ctx, ports.ArticleQuery{
		Order: ports.OrderCreatedDesc,
		Limit: availableDatesScanLimit,
	})
	if err != nil {
		return nil, storeErr(fmt.Errorf("query dates: %w", err))
	}

	seen := map[string]struct{}{}
	var dates []string
	for _, article := range articles {
		day := article.CreatedAt.UTC().Format("2006-01-02")
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		dates = append(dates, day)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// Search translates the natural-language query into filters and applies them
// over analyzed articles, newest first.
func (q *QueryService) Search(ctx context.Context, query string, limit int) ([]domain.Article, error) {
	filters := domain.SearchFilters{Keywords: []string{strings.ToLower(strings.TrimSpace(query))}}
	if q.translator != nil {
		translated, err := q.translator.Translate(ctx, query)
		if err == nil {
			filters = translated
		}
	}
	return q.SearchFiltered(ctx, filters, limit)
}

// SearchFiltered applies already-structured filters: bias equality, any-tag
// overlap, any-keyword substring match against keywords and headline.
func (q *QueryService) SearchFiltered(ctx context.Context, filters domain.SearchFilters, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		limit = 20
	}

	articles, err := q.store.Query(ctx, ports.ArticleQuery{
		Statuses: []domain.ProcessingStatus{domain.StatusAnalyzed},
		Order:    ports.OrderCreatedDesc,
		Limit:    availableDatesScanLimit,
	})
	if err != nil {
		return nil, storeErr(fmt.Errorf("query search: %w", err))
	}

	var result []domain.Article
	for _, article := range articles {
		if !matchesFilters(article, filters) {
			continue
		}
		result = append(result, article)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func matchesFilters(article domain.Article, filters domain.SearchFilters) bool {
	if filters.Bias != domain.BiasUnknown && article.Bias != filters.Bias {
		return false
	}

	if len(filters.TopicTags) > 0 && !anyTermMatch(filters.TopicTags, article.TopicTags) {
		return false
	}

	if len(filters.Keywords) > 0 {
		headline := strings.ToLower(article.Headline)
		matched := false
		for _, kw := range filters.Keywords {
			kw = normalizeTerm(kw)
			if kw == "" {
				continue
			}
			if strings.Contains(headline, kw) || anyTermMatch([]string{kw}, article.Keywords) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

func anyTermMatch(wanted, have []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[normalizeTerm(h)] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := set[normalizeTerm(w)]; ok {
			return true
		}
	}
	return false
}
