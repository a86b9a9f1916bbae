package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

// Schema expected by the store. Retention is the operator's job: a scheduled
// `DELETE FROM articles WHERE expire_at < now()` outside this process.
//
//	CREATE TABLE articles (
//	    url            TEXT PRIMARY KEY,
//	    headline       TEXT NOT NULL,
//	    raw_content    TEXT NOT NULL DEFAULT '',
//	    category       TEXT NOT NULL DEFAULT '',
//	    published_at   TIMESTAMPTZ,
//	    source_prior   TEXT NOT NULL DEFAULT '',
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    expire_at      TIMESTAMPTZ NOT NULL,
//	    status         TEXT NOT NULL,
//	    attempts       INT NOT NULL DEFAULT 0,
//	    tldr_summary   TEXT NOT NULL DEFAULT '',
//	    what_happened  TEXT NOT NULL DEFAULT '',
//	    impact         TEXT NOT NULL DEFAULT '',
//	    conclusion     TEXT NOT NULL DEFAULT '',
//	    bias_label     TEXT NOT NULL DEFAULT '',
//	    topic_tags     TEXT[] NOT NULL DEFAULT '{}',
//	    keywords       TEXT[] NOT NULL DEFAULT '{}',
//	    claimed_by     TEXT NOT NULL DEFAULT '',
//	    claimed_at     TIMESTAMPTZ
//	);
//	CREATE INDEX idx_articles_status_created ON articles (status, created_at);

var articleColumns = []string{
	"url", "headline", "raw_content", "category", "published_at",
	"source_prior", "created_at", "expire_at", "status", "attempts",
	"tldr_summary", "what_happened", "impact", "conclusion",
	"bias_label", "topic_tags", "keywords", "claimed_by", "claimed_at",
}

// PostgresStore persists articles in Postgres.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArticleStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Get loads one article by URL.
func (s *PostgresStore) Get(ctx context.Context, url string) (domain.Article, error) {
	query, args, err := s.builder.
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build get query: %w", err)
	}

	article, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}

// Put upserts the full article record keyed by URL.
func (s *PostgresStore) Put(ctx context.Context, a domain.Article) error {
	var publishedAt, claimedAt any
	if !a.PublishedAt.IsZero() {
		publishedAt = a.PublishedAt
	}
	if !a.ClaimedAt.IsZero() {
		claimedAt = a.ClaimedAt
	}

	query, args, err := s.builder.
		Insert("articles").
		Columns(articleColumns...).
		Values(
			a.URL, a.Headline, a.RawContent, a.Category, publishedAt,
			string(a.SourcePrior), a.CreatedAt, a.ExpireAt, string(a.Status), a.Attempts,
			a.TLDRSummary, a.DetailedSummary.WhatHappened, a.DetailedSummary.Impact,
			a.DetailedSummary.Conclusion, string(a.Bias),
			pq.Array(a.TopicTags), pq.Array(a.Keywords), a.ClaimedBy, claimedAt,
		).
		Suffix(`ON CONFLICT (url) DO UPDATE SET
			headline = EXCLUDED.headline,
			raw_content = EXCLUDED.raw_content,
			category = EXCLUDED.category,
			published_at = EXCLUDED.published_at,
			source_prior = EXCLUDED.source_prior,
			expire_at = EXCLUDED.expire_at,
			status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			tldr_summary = EXCLUDED.tldr_summary,
			what_happened = EXCLUDED.what_happened,
			impact = EXCLUDED.impact,
			conclusion = EXCLUDED.conclusion,
			bias_label = EXCLUDED.bias_label,
			topic_tags = EXCLUDED.topic_tags,
			keywords = EXCLUDED.keywords,
			claimed_by = EXCLUDED.claimed_by,
			claimed_at = EXCLUDED.claimed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}
	return nil
}

// Exists reports whether an article with the URL is already stored.
func (s *PostgresStore) Exists(ctx context.Context, url string) (bool, error) {
	query, args, err := s.builder.
		Select("1").
		From("articles").
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists check: %w", err)
	}
	return true, nil
}

// Query scans articles matching the filter.
func (s *PostgresStore) Query(ctx context.Context, q ports.ArticleQuery) ([]domain.Article, error) {
	builder := s.builder.Select(articleColumns...).From("articles")

	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, st := range q.Statuses {
			statuses = append(statuses, string(st))
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	if !q.CreatedBefore.IsZero() {
		builder = builder.Where(sq.Lt{"created_at": q.CreatedBefore})
	}
	if !q.CreatedAfter.IsZero() {
		builder = builder.Where(sq.GtOrEq{"created_at": q.CreatedAfter})
	}

	if q.Order == ports.OrderCreatedAsc {
		builder = builder.OrderBy("created_at ASC")
	} else {
		builder = builder.OrderBy("created_at DESC")
	}
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build scan query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

// Claim atomically marks a pending, unclaimed (or expired-claim) article as
// owned by owner. Returns false when someone else holds a live claim or the
// article is no longer pending.
func (s *PostgresStore) Claim(ctx context.Context, url, owner string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	query, args, err := s.builder.
		Update("articles").
		Set("claimed_by", owner).
		Set("claimed_at", now).
		Where(sq.Eq{"url": url, "status": string(domain.StatusPending)}).
		Where(sq.Or{
			sq.Eq{"claimed_by": ""},
			sq.Lt{"claimed_at": now.Add(-ttl)},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build claim query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("claim article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return affected == 1, nil
}

// Release clears a claim held by owner.
func (s *PostgresStore) Release(ctx context.Context, url, owner string) error {
	query, args, err := s.builder.
		Update("articles").
		Set("claimed_by", "").
		Set("claimed_at", nil).
		Where(sq.Eq{"url": url, "claimed_by": owner}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build release query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		a           domain.Article
		status      string
		bias        string
		prior       string
		publishedAt sql.NullTime
		claimedAt   sql.NullTime
		tags        pq.StringArray
		keywords    pq.StringArray
	)

	err := row.Scan(
		&a.URL, &a.Headline, &a.RawContent, &a.Category, &publishedAt,
		&prior, &a.CreatedAt, &a.ExpireAt, &status, &a.Attempts,
		&a.TLDRSummary, &a.DetailedSummary.WhatHappened, &a.DetailedSummary.Impact,
		&a.DetailedSummary.Conclusion, &bias, &tags, &keywords,
		&a.ClaimedBy, &claimedAt,
	)
	if err != nil {
		return domain.Article{}, err
	}

	a.Status = domain.ProcessingStatus(status)
	a.Bias = domain.BiasLabel(bias)
	a.SourcePrior = domain.BiasLabel(prior)
	a.TopicTags = []string(tags)
	a.Keywords = []string(keywords)
	if publishedAt.Valid {
		a.PublishedAt = publishedAt.Time
	}
	if claimedAt.Valid {
		a.ClaimedAt = claimedAt.Time
	}
	return a, nil
}
