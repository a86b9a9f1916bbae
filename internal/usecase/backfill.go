package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// BackfillController recovers articles stuck in pending or failed past an age
// threshold. Requeueing failed items resets their attempt counter — an
// explicit manual-override path that bypasses the enricher's retry ceiling.
type BackfillController struct {
	store    ports.ArticleStore
	claimTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewBackfillController wires the store; claimTTL decides when a pending
// item's claim counts as abandoned.
func NewBackfillController(store ports.ArticleStore, claimTTL time.Duration, logger *slog.Logger) *BackfillController {
	if claimTTL <= 0 {
		claimTTL = 2 * time.Minute
	}
	return &BackfillController{store: store, claimTTL: claimTTL, logger: logger, now: time.Now}
}

// Backfill requeues stale items and returns the number of state transitions
// made: failed articles reset to pending, and stale claims on old pending
// articles released. Idempotent — an immediate second call finds nothing to
// transition and returns 0.
func (b *BackfillController) Backfill(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := b.now().UTC().Add(-olderThan)

	stale, err := b.store.Query(ctx, ports.ArticleQuery{
		Statuses:      []domain.ProcessingStatus{domain.StatusPending, domain.StatusFailed},
		CreatedBefore: cutoff,
		Order:         ports.OrderCreatedAsc,
	})
	if err != nil {
		return 0, storeErr(fmt.Errorf("query stale: %w", err))
	}

	requeued := 0
	for _, article := range stale {
		switch article.Status {
		case domain.StatusFailed:
			article.Status = domain.StatusPending
			article.Attempts = 0
			article.ClaimedBy = ""
			article.ClaimedAt = time.Time{}
			if err := b.store.Put(ctx, article); err != nil {
				return requeued, storeErr(fmt.Errorf("requeue %s: %w", article.URL, err))
			}
			requeued++

		case domain.StatusPending:
			// Old pending items are already queued; only an abandoned claim
			// blocks them.
			if article.ClaimedBy == "" || b.now().Sub(article.ClaimedAt) < b.claimTTL {
				continue
			}
			if err := b.store.Release(ctx, article.URL, article.ClaimedBy); err != nil {
				return requeued, storeErr(fmt.Errorf("release %s: %w", article.URL, err))
			}
			requeued++
		}
	}

	if b.logger != nil {
		b.logger.Info("backfill complete", "scanned", len(stale), "requeued", requeued)
	}
	return requeued, nil
}
