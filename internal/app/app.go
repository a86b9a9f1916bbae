package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/infrastructure/feed"
	"NewsAggregator/internal/infrastructure/llm"
	"NewsAggregator/internal/infrastructure/scheduler"
	"NewsAggregator/internal/infrastructure/scraper"
	"NewsAggregator/internal/infrastructure/storage"
	"NewsAggregator/internal/infrastructure/telegram"
	"NewsAggregator/internal/logging"
	"NewsAggregator/internal/ports"
	"NewsAggregator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration. Its
// Harvest/ProcessQueue/Backfill methods are the trigger surface an external
// routing layer calls into.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	store      ports.ArticleStore
	harvester  *usecase.Harvester
	enricher   *usecase.Enricher
	backfill   *usecase.BackfillController
	similarity *usecase.SimilarityMatcher
	queries    *usecase.QueryService
	notifier   ports.Notifier

	pipelineTicker ports.Scheduler
	backfillTicker ports.Scheduler
}

// New builds a runnable application instance. A nil db selects the in-memory
// store.
func New(cfg config.Config, db *sql.DB, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var store ports.ArticleStore
	if db != nil {
		store = storage.NewPostgresStore(db)
	} else {
		baseLogger.Warn("no database configured, using in-memory store")
		store = storage.NewMemoryStore()
	}

	fetcher := feed.NewFetcher(nil, cfg.Harvest.FetchTimeout)
	pageScraper := scraper.NewPageScraper(nil, logging.Component(baseLogger, "scraper"))

	llmClient := llm.NewClient(cfg.LLM)
	var analyzer ports.Analyzer
	var translator ports.QueryTranslator
	if llmClient.Configured() {
		analyzer = llm.NewAnalyzer(llmClient)
		translator = llm.NewTranslator(llmClient)
	} else {
		baseLogger.Warn("llm not configured, enrichment disabled")
	}

	harvester := usecase.NewHarvester(usecase.HarvesterDeps{
		Store:           store,
		Fetcher:         fetcher,
		Sources:         cfg.Sources(),
		Logger:          logging.Component(baseLogger, "harvester"),
		Concurrency:     cfg.Harvest.Concurrency,
		MaxPerFeed:      cfg.Harvest.MaxPerFeed,
		FreshnessWindow: cfg.Harvest.FreshnessWindow,
		Retention:       cfg.Harvest.Retention,
	})

	var enricher *usecase.Enricher
	if analyzer != nil {
		enricher = usecase.NewEnricher(usecase.EnricherDeps{
			Store:        store,
			Analyzer:     analyzer,
			Scraper:      pageScraper,
			Logger:       logging.Component(baseLogger, "enricher"),
			Concurrency:  cfg.Enrich.Concurrency,
			RetryCeiling: cfg.Enrich.RetryCeiling,
			ItemTimeout:  cfg.Enrich.ItemTimeout,
			ClaimTTL:     cfg.Enrich.ClaimTTL,
			MinRawLength: cfg.Enrich.MinRawLength,
		})
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	return &Application{
		cfg:            cfg,
		logger:         logging.Component(baseLogger, "app"),
		store:          store,
		harvester:      harvester,
		enricher:       enricher,
		backfill:       usecase.NewBackfillController(store, cfg.Enrich.ClaimTTL, logging.Component(baseLogger, "backfill")),
		similarity:     usecase.NewSimilarityMatcher(store, 10),
		queries:        usecase.NewQueryService(store, translator),
		notifier:       notifier,
		pipelineTicker: scheduler.NewIntervalScheduler(cfg.Scheduler.HarvestInterval),
		backfillTicker: scheduler.NewIntervalScheduler(cfg.Scheduler.BackfillInterval),
	}
}

// Harvest triggers one harvest run.
func (a *Application) Harvest(ctx context.Context) (domain.HarvestReport, error) {
	return a.harvester.Harvest(ctx)
}

// ProcessQueue triggers one enrichment batch.
func (a *Application) ProcessQueue(ctx context.Context, maxItems int) (domain.EnrichReport, error) {
	if a.enricher == nil {
		return domain.EnrichReport{}, fmt.Errorf("enrichment disabled: llm not configured")
	}
	if maxItems <= 0 {
		maxItems = a.cfg.Enrich.BatchSize
	}
	return a.enricher.ProcessQueue(ctx, maxItems)
}

// Backfill triggers one recovery sweep.
func (a *Application) Backfill(ctx context.Context) (int, error) {
	return a.backfill.Backfill(ctx, a.cfg.Backfill.OlderThan)
}

// FindSimilar exposes the similarity matcher to callers.
func (a *Application) FindSimilar(ctx context.Context, article domain.Article) ([]domain.Article, error) {
	return a.similarity.FindSimilar(ctx, article)
}

// Queries exposes the read side.
func (a *Application) Queries() *usecase.QueryService {
	return a.queries
}

// Run starts the schedulers and blocks until the context ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.pipelineTicker.Start(ctx, func(time.Time) { a.runPipelineCycle(ctx) }); err != nil {
		return fmt.Errorf("start pipeline scheduler: %w", err)
	}
	if err := a.backfillTicker.Start(ctx, func(time.Time) {
		if _, err := a.Backfill(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("backfill cycle failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("start backfill scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.pipelineTicker.Stop(stopCtx)
	_ = a.backfillTicker.Stop(stopCtx)
	return nil
}

// runPipelineCycle performs one harvest followed by enrichment batches until
// the pending queue stops draining.
func (a *Application) runPipelineCycle(ctx context.Context) {
	report, err := a.Harvest(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.Error("harvest cycle failed", "error", err)
		}
		return
	}

	if a.enricher == nil {
		return
	}

	analyzed := 0
	for {
		enriched, err := a.ProcessQueue(ctx, a.cfg.Enrich.BatchSize)
		if err != nil {
			if ctx.Err() == nil {
				a.logger.Error("enrich cycle failed", "error", err)
			}
			return
		}
		analyzed += enriched.Succeeded
		if enriched.Succeeded+enriched.Failed == 0 {
			break
		}
	}

	a.logger.Info("pipeline cycle complete", "harvested", report.New, "analyzed", analyzed)

	if a.notifier != nil && analyzed > 0 {
		if err := a.notifier.PublishDigest(ctx, a.buildDigest(ctx, analyzed)); err != nil {
			a.logger.Warn("digest publish failed", "error", err)
		}
	}
}

func (a *Application) buildDigest(ctx context.Context, limit int) string {
	articles, err := a.queries.FeedForDate(ctx, time.Time{}, limit)
	if err != nil || len(articles) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Freshly analyzed:\n")
	for _, article := range articles {
		fmt.Fprintf(&b, "- [%s] %s\n%s\n", article.Bias, article.Headline, article.URL)
	}
	return b.String()
}
