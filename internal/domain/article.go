package domain

import "time"

// ProcessingStatus tracks an article through the enrichment pipeline.
type ProcessingStatus string

const (
	StatusPending  ProcessingStatus = "pending"
	StatusAnalyzed ProcessingStatus = "analyzed"
	StatusFailed   ProcessingStatus = "failed"
)

// SectionPlaceholder marks a summary section the analysis did not return.
const SectionPlaceholder = "Not available."

// DetailedSummary holds the three fixed sections produced by analysis.
type DetailedSummary struct {
	WhatHappened string
	Impact       string
	Conclusion   string
}

// Normalize fills missing sections with the placeholder so they are never
// silently dropped.
func (d DetailedSummary) Normalize() DetailedSummary {
	if d.WhatHappened == "" {
		d.WhatHappened = SectionPlaceholder
	}
	if d.Impact == "" {
		d.Impact = SectionPlaceholder
	}
	if d.Conclusion == "" {
		d.Conclusion = SectionPlaceholder
	}
	return d
}

// Article is the core entity. URL is the natural key and never mutates.
// CreatedAt is the ingestion timestamp and the sole basis for date bucketing;
// PublishedAt is the feed-declared time, used only for the freshness window.
type Article struct {
	URL         string
	Headline    string
	RawContent  string
	Category    string
	PublishedAt time.Time
	CreatedAt   time.Time
	ExpireAt    time.Time

	// SourcePrior is the outlet bias prior of the feed this article came
	// from, snapshotted at harvest time for the classifier.
	SourcePrior BiasLabel

	Status   ProcessingStatus
	Attempts int

	TLDRSummary     string
	DetailedSummary DetailedSummary
	Bias            BiasLabel
	TopicTags       []string
	Keywords        []string

	// Claim marker for in-flight enrichment; empty when unclaimed.
	ClaimedBy string
	ClaimedAt time.Time
}

// FeedSource maps one RSS feed URL to a category and an outlet bias prior.
// Immutable at runtime.
type FeedSource struct {
	FeedURL  string
	Category string
	Prior    BiasLabel
}

// HarvestReport summarizes one harvest run.
type HarvestReport struct {
	New        int
	Duplicates int
	Errors     int
}

// EnrichReport summarizes one process-queue run.
type EnrichReport struct {
	Succeeded int
	Failed    int
}

// Analysis is the parsed result of one AI call on an article's text.
type Analysis struct {
	TLDR       string
	Detailed   DetailedSummary
	TopicTags  []string
	Keywords   []string
	BiasSignal BiasLabel
}

// SearchFilters is the structured form of a natural-language search query,
// consumed by the query layer.
type SearchFilters struct {
	Keywords  []string
	TopicTags []string
	Bias      BiasLabel
}
