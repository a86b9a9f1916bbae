package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// EnricherDeps wires the enricher's collaborators.
type EnricherDeps struct {
	Store    ports.ArticleStore
	Analyzer ports.Analyzer
	Scraper  ports.Scraper
	Logger   *slog.Logger

	Concurrency  int
	RetryCeiling int
	ItemTimeout  time.Duration
	ClaimTTL     time.Duration
	MinRawLength int
}

// Enricher drains the pending queue: claim, scrape, analyze, classify, write.
// Items are claimed before analysis so no two concurrent runs enrich the same
// URL; a cancelled run releases its in-flight claims.
type Enricher struct {
	store    ports.ArticleStore
	analyzer ports.Analyzer
	scraper  ports.Scraper
	logger   *slog.Logger

	concurrency  int
	retryCeiling int
	itemTimeout  time.Duration
	claimTTL     time.Duration
	minRawLength int
}

// NewEnricher constructs the enricher, applying defaults for unset knobs.
func NewEnricher(deps EnricherDeps) *Enricher {
	e := &Enricher{
		store:        deps.Store,
		analyzer:     deps.Analyzer,
		scraper:      deps.Scraper,
		logger:       deps.Logger,
		concurrency:  deps.Concurrency,
		retryCeiling: deps.RetryCeiling,
		itemTimeout:  deps.ItemTimeout,
		claimTTL:     deps.ClaimTTL,
		minRawLength: deps.MinRawLength,
	}
	if e.concurrency <= 0 {
		e.concurrency = 3
	}
	if e.retryCeiling <= 0 {
		e.retryCeiling = 3
	}
	if e.itemTimeout <= 0 {
		e.itemTimeout = 45 * time.Second
	}
	if e.claimTTL <= 0 {
		e.claimTTL = 2 * time.Minute
	}
	if e.minRawLength <= 0 {
		e.minRawLength = 200
	}
	return e
}

type itemOutcome int

const (
	outcomeSkipped itemOutcome = iota
	outcomeSucceeded
	outcomeFailed
)

// ProcessQueue selects up to maxItems pending articles, oldest first, and
// enriches them concurrently. One item's analysis failure never aborts the
// batch; a store failure does.
func (e *Enricher) ProcessQueue(ctx context.Context, maxItems int) (domain.EnrichReport, error) {
	if maxItems <= 0 {
		maxItems = 10
	}

	pending, err := e.store.Query(ctx, ports.ArticleQuery{
		Statuses: []domain.ProcessingStatus{domain.StatusPending},
		Order:    ports.OrderCreatedAsc,
		Limit:    maxItems,
	})
	if err != nil {
		return domain.EnrichReport{}, storeErr(fmt.Errorf("query pending: %w", err))
	}
	if len(pending) == 0 {
		return domain.EnrichReport{}, nil
	}

	owner := uuid.NewString()

	var (
		mu     sync.Mutex
		report domain.EnrichReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, article := range pending {
		article := article
		g.Go(func() error {
			outcome, err := e.processOne(gctx, article, owner)
			if err != nil {
				return err
			}
			mu.Lock()
			switch outcome {
			case outcomeSucceeded:
				report.Succeeded++
			case outcomeFailed:
				report.Failed++
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("process queue: %w", err)
	}

	e.info("queue processed", "selected", len(pending), "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// processOne enriches a single claimed article. It returns a non-nil error
// only for store failures or cancellation; analysis failures are absorbed
// into the item's retry state.
func (e *Enricher) processOne(ctx context.Context, article domain.Article, owner string) (itemOutcome, error) {
	claimed, err := e.store.Claim(ctx, article.URL, owner, e.claimTTL)
	if err != nil {
		return outcomeSkipped, storeErr(fmt.Errorf("claim %s: %w", article.URL, err))
	}
	if !claimed {
		// Another run owns it.
		e.debug("claim lost", "url", article.URL)
		return outcomeSkipped, nil
	}

	analysis, analyzeErr := e.analyze(ctx, article)

	if ctx.Err() != nil {
		// Cancelled mid-batch: revert to a clean pending state so the item
		// is not stranded behind a live claim.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.store.Release(releaseCtx, article.URL, owner)
		return outcomeSkipped, ctx.Err()
	}

	if analyzeErr != nil {
		if err := e.recordFailure(ctx, article, analyzeErr); err != nil {
			return outcomeSkipped, err
		}
		return outcomeFailed, nil
	}

	article.TLDRSummary = analysis.TLDR
	article.DetailedSummary = analysis.Detailed.Normalize()
	article.TopicTags = mergeSets(article.TopicTags, analysis.TopicTags)
	article.Keywords = mergeSets(article.Keywords, analysis.Keywords)
	article.Bias = domain.ClassifyBias(article.SourcePrior, analysis.BiasSignal)
	article.Status = domain.StatusAnalyzed
	article.ClaimedBy = ""
	article.ClaimedAt = time.Time{}

	if err := e.store.Put(ctx, article); err != nil {
		return outcomeSkipped, storeErr(fmt.Errorf("put analyzed %s: %w", article.URL, err))
	}

	e.debug("article analyzed", "url", article.URL, "bias", article.Bias)
	return outcomeSucceeded, nil
}

func (e *Enricher) analyze(ctx context.Context, article domain.Article) (domain.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, e.itemTimeout)
	defer cancel()

	text := strings.TrimSpace(article.RawContent)
	if e.scraper != nil && len(text) < e.minRawLength {
		text = e.scraper.Scrape(ctx, article.URL, text)
	}
	if text == "" {
		text = article.Headline
	}

	return e.analyzer.Analyze(ctx, text)
}

// recordFailure advances the retry state machine: below the ceiling the item
// stays pending for a later cycle, at the ceiling it is parked as failed
// until a backfill requeues it.
func (e *Enricher) recordFailure(ctx context.Context, article domain.Article, cause error) error {
	article.Attempts++
	if article.Attempts >= e.retryCeiling {
		article.Status = domain.StatusFailed
		e.warn("article exceeded retry ceiling", "url", article.URL, "attempts", article.Attempts, "error", cause)
	} else {
		e.debug("analysis failed, will retry", "url", article.URL, "attempts", article.Attempts, "error", cause)
	}
	article.ClaimedBy = ""
	article.ClaimedAt = time.Time{}

	if err := e.store.Put(ctx, article); err != nil {
		return storeErr(fmt.Errorf("put failed %s: %w", article.URL, err))
	}
	return nil
}

func mergeSets(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func (e *Enricher) info(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e *Enricher) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func (e *Enricher) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
