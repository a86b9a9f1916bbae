package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

func TestMemoryStoreGetPut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "https://a.test/1"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	article := domain.Article{
		URL:       "https://a.test/1",
		Headline:  "hello",
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Put(ctx, article); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, article.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Headline != "hello" {
		t.Fatalf("unexpected headline: %q", got.Headline)
	}

	exists, err := store.Exists(ctx, article.URL)
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v", exists, err)
	}
}

func TestMemoryStoreQueryOrderAndLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, time.November, 10, 12, 0, 0, 0, time.UTC)

	for i, url := range []string{"https://a.test/1", "https://a.test/2", "https://a.test/3"} {
		_ = store.Put(ctx, domain.Article{
			URL:       url,
			Status:    domain.StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	oldestFirst, err := store.Query(ctx, ports.ArticleQuery{
		Statuses: []domain.ProcessingStatus{domain.StatusPending},
		Order:    ports.OrderCreatedAsc,
		Limit:    2,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(oldestFirst) != 2 {
		t.Fatalf("limit not applied: got %d", len(oldestFirst))
	}
	if oldestFirst[0].URL != "https://a.test/1" {
		t.Fatalf("wrong FIFO order: %s first", oldestFirst[0].URL)
	}

	before, err := store.Query(ctx, ports.ArticleQuery{CreatedBefore: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(before) != 1 || before[0].URL != "https://a.test/1" {
		t.Fatalf("CreatedBefore filter wrong: %v", before)
	}
}

func TestMemoryStoreClaimExclusive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	url := "https://a.test/claim"
	_ = store.Put(ctx, domain.Article{URL: url, Status: domain.StatusPending, CreatedAt: time.Now()})

	ok, err := store.Claim(ctx, url, "worker-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first claim = %v, %v", ok, err)
	}

	ok, err = store.Claim(ctx, url, "worker-2", time.Minute)
	if err != nil {
		t.Fatalf("second claim errored: %v", err)
	}
	if ok {
		t.Fatal("second claim succeeded while first is live")
	}

	// Release by a non-owner must not clear the claim.
	if err := store.Release(ctx, url, "worker-2"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, _ := store.Claim(ctx, url, "worker-2", time.Minute); ok {
		t.Fatal("claim stolen after foreign release")
	}

	if err := store.Release(ctx, url, "worker-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, _ := store.Claim(ctx, url, "worker-2", time.Minute); !ok {
		t.Fatal("claim unavailable after owner release")
	}
}

func TestMemoryStoreClaimExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	url := "https://a.test/expired"
	_ = store.Put(ctx, domain.Article{
		URL:       url,
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
		ClaimedBy: "dead-worker",
		ClaimedAt: time.Now().Add(-time.Hour),
	})

	ok, err := store.Claim(ctx, url, "worker-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expired claim not reclaimable: %v, %v", ok, err)
	}
}

func TestMemoryStoreClaimRequiresPending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	url := "https://a.test/done"
	_ = store.Put(ctx, domain.Article{URL: url, Status: domain.StatusAnalyzed, CreatedAt: time.Now()})

	if ok, _ := store.Claim(ctx, url, "worker-1", time.Minute); ok {
		t.Fatal("claimed a non-pending article")
	}
}
