package usecase

import (
	"context"
	"testing"
	"time"

	"NewsAggregator/internal/domain"
)

func TestProcessQueueEndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	stub := pendingArticle("https://a.test/1", now)
	stub.SourcePrior = domain.BiasLeanRight
	store := newStoreWith(stub)

	analyzer := &fakeAnalyzer{analysis: defaultAnalysis()}
	e := NewEnricher(EnricherDeps{Store: store, Analyzer: analyzer})

	report, err := e.ProcessQueue(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessQueue: %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	article, err := store.Get(ctx, stub.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if article.Status != domain.StatusAnalyzed {
		t.Fatalf("status = %q, want analyzed", article.Status)
	}
	// Lean Right prior with Center signal differ by one step: content wins.
	if article.Bias != domain.BiasCenter {
		t.Fatalf("bias = %q, want Center", article.Bias)
	}
	if article.TLDRSummary != "Quick summary." {
		t.Fatalf("tldr not written: %q", article.TLDRSummary)
	}
	if article.DetailedSummary.Conclusion != "It concluded." {
		t.Fatalf("detailed summary not written: %+v", article.DetailedSummary)
	}
	if article.ClaimedBy != "" {
		t.Fatalf("claim not cleared after success: %q", article.ClaimedBy)
	}
	// Category tag kept, analysis tags merged without duplicates.
	if got := len(article.TopicTags); got != 2 {
		t.Fatalf("topic tags = %v", article.TopicTags)
	}
}

func TestProcessQueueFIFO(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	store := newStoreWith(
		pendingArticle("https://a.test/newer", base.Add(30*time.Minute)),
		pendingArticle("https://a.test/oldest", base),
		pendingArticle("https://a.test/mid", base.Add(10*time.Minute)),
	)

	analyzer := &fakeAnalyzer{analysis: defaultAnalysis()}
	e := NewEnricher(EnricherDeps{Store: store, Analyzer: analyzer, Concurrency: 1})

	if _, err := e.ProcessQueue(ctx, 2); err != nil {
		t.Fatalf("ProcessQueue: %v", err)
	}

	// Batch of 2 drains the two oldest; the newest stays pending.
	newest, _ := store.Get(ctx, "https://a.test/newer")
	if newest.Status != domain.StatusPending {
		t.Fatalf("newest article processed out of order: %q", newest.Status)
	}
	oldest, _ := store.Get(ctx, "https://a.test/oldest")
	if oldest.Status != domain.StatusAnalyzed {
		t.Fatalf("oldest article not drained first: %q", oldest.Status)
	}
}

func TestProcessQueueRetryCeiling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStoreWith(pendingArticle("https://a.test/flaky", time.Now().UTC()))
	analyzer := &fakeAnalyzer{err: errAnalyzeBoom}
	e := NewEnricher(EnricherDeps{Store: store, Analyzer: analyzer, RetryCeiling: 3})

	for attempt := 1; attempt <= 3; attempt++ {
		report, err := e.ProcessQueue(ctx, 10)
		if err != nil {
			t.Fatalf("ProcessQueue attempt %d: %v", attempt, err)
		}
		article, _ := store.Get(ctx, "https://a.test/flaky")
		if article.Attempts != attempt {
			t.Fatalf("attempts = %d after run %d", article.Attempts, attempt)
		}
		if attempt < 3 {
			if report.Failed != 1 || article.Status != domain.StatusPending {
				t.Fatalf("run %d: status %q, report %+v", attempt, article.Status, report)
			}
		} else if article.Status != domain.StatusFailed {
			t.Fatalf("article not parked as failed at the ceiling: %q", article.Status)
		}
	}

	// Failed items are no longer selected.
	report, err := e.ProcessQueue(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessQueue: %v", err)
	}
	if report.Failed != 0 || report.Succeeded != 0 {
		t.Fatalf("failed article still selected: %+v", report)
	}
}

func TestProcessQueueFailureIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()
	store := newStoreWith(
		pendingArticle("https://a.test/ok", now.Add(-time.Minute)),
		pendingArticle("https://a.test/bad", now),
	)

	// Fail only the second article by keying off its raw content.
	analyzer := &selectiveAnalyzer{failFor: "https://a.test/bad", analysis: defaultAnalysis()}
	e := NewEnricher(EnricherDeps{Store: store, Analyzer: analyzer, Concurrency: 1})

	report, err := e.ProcessQueue(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessQueue: %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestProcessQueueNoConcurrentDoubleAnalysis(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()
	var articles []domain.Article
	for _, u := range []string{"https://a.test/1", "https://a.test/2", "https://a.test/3"} {
		articles = append(articles, pendingArticle(u, now))
	}
	store := newStoreWith(articles...)

	analyzer := &fakeAnalyzer{analysis: defaultAnalysis(), delay: 20 * time.Millisecond}
	e := NewEnricher(EnricherDeps{Store: store, Analyzer: analyzer, Concurrency: 3})

	// Two overlapping runs over the same queue.
	done := make(chan domain.EnrichReport, 2)
	for i := 0; i < 2; i++ {
		go func() {
			report, _ := e.ProcessQueue(ctx, 10)
			done <- report
		}()
	}
	total := domain.EnrichReport{}
	for i := 0; i < 2; i++ {
		r := <-done
		total.Succeeded += r.Succeeded
		total.Failed += r.Failed
	}

	if total.Succeeded != 3 {
		t.Fatalf("succeeded = %d across runs, want 3", total.Succeeded)
	}
	analyzer.mu.Lock()
	defer analyzer.mu.Unlock()
	if analyzer.calls != 3 {
		t.Fatalf("analyzer called %d times for 3 articles — double analysis", analyzer.calls)
	}
	for text, count := range analyzer.seen {
		if count != 1 {
			t.Fatalf("article analyzed %d times: %q", count, text)
		}
	}
}

func TestProcessQueueCancellationReleasesClaims(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	store := newStoreWith(pendingArticle("https://a.test/slow", now))
	analyzer := &fakeAnalyzer{analysis: defaultAnalysis(), delay: 200 * time.Millisecond}
	e := NewEnricher(EnricherDeps{Store: store, Analyzer: analyzer})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	if _, err := e.ProcessQueue(ctx, 10); err == nil {
		t.Fatal("expected cancellation error")
	}

	article, err := store.Get(context.Background(), "https://a.test/slow")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if article.Status != domain.StatusPending {
		t.Fatalf("cancelled item left in %q", article.Status)
	}
	if article.ClaimedBy != "" {
		t.Fatalf("claim not released on cancellation: %q", article.ClaimedBy)
	}
}

// selectiveAnalyzer fails for exactly one article, matched by URL embedded in
// the raw content the test fixtures generate.
type selectiveAnalyzer struct {
	failFor  string
	analysis domain.Analysis
}

func (s *selectiveAnalyzer) Analyze(ctx context.Context, text string) (domain.Analysis, error) {
	if len(text) >= len(s.failFor) && text[len(text)-len(s.failFor):] == s.failFor {
		return domain.Analysis{}, errAnalyzeBoom
	}
	return s.analysis, nil
}
