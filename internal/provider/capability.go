// Package provider holds the thin capability-interface adapters over
// every upstream (C5): market-data vendors, exchange-filing/IR scrapers,
// LLM gateways, embedding APIs, currency feeds, news feeds.
package provider

import (
	"context"
	"time"
)

// Capability is the fixed set of behaviors a provider may implement
// (spec §4.5).
type Capability string

const (
	CapabilityBars       Capability = "bars"
	CapabilityRate       Capability = "rate"
	CapabilityNews       Capability = "news"
	CapabilityTranscript Capability = "transcript"
	CapabilitySummary    Capability = "summary"
	CapabilitySentiment  Capability = "sentiment"
	CapabilityEmbed      Capability = "embed"
	CapabilitySearch     Capability = "search"
)

// Descriptor identifies a provider instance within a capability's
// priority order (spec §3 ProviderDescriptor).
type Descriptor struct {
	Name       string
	Capability Capability
	Priority   int
}

// Bar is one OHLCV observation.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// BarsProvider fetches a price history range at a given interval.
type BarsProvider interface {
	Name() string
	GetBars(ctx context.Context, symbol string, from, to time.Time, interval string) ([]Bar, error)
}

// RateProvider fetches a currency conversion rate.
type RateProvider interface {
	Name() string
	GetRate(ctx context.Context, from, to string, asOf *time.Time) (rate float64, sourceTag string, err error)
}

// Article is one news/press item.
type Article struct {
	Title       string
	URL         string
	Source      string
	PublishedAt time.Time
	Summary     string
}

// NewsProvider fetches articles matching a query within a recency
// window.
type NewsProvider interface {
	Name() string
	GetArticles(ctx context.Context, query string, windowDays int, limit int) ([]Article, error)
}

// TranscriptResult is a scraped or fetched earnings-call transcript.
type TranscriptResult struct {
	Text      string
	SourceURL string
	SourceTag string
	WordCount int
}

// TranscriptProvider fetches an earnings-call transcript for one
// (symbol, quarter, fiscal year) triple.
type TranscriptProvider interface {
	Name() string
	GetTranscript(ctx context.Context, symbol, quarter string, fiscalYear int) (TranscriptResult, error)
}

// SummaryMode selects the shape of a requested summary.
type SummaryMode string

const (
	SummaryModeExecutive SummaryMode = "executive"
	SummaryModeDetailed  SummaryMode = "detailed"
	SummaryModeBullets   SummaryMode = "bullets"
)

// Summary is a structured LLM-produced summary of source text.
type Summary struct {
	Mode      SummaryMode
	Headline  string
	Bullets   []string
	ModelTag  string
}

// SummaryProvider turns raw text into a structured summary.
type SummaryProvider interface {
	Name() string
	Summarize(ctx context.Context, text string, mode SummaryMode) (Summary, error)
}

// Sentiment is the structured sentiment score for a piece of text (spec
// §4.5 SentimentProvider).
type Sentiment struct {
	Overall    int // 1-5
	Tone       string
	Outlook    string
	Risk       string
	Confidence float64 // 0-1
	Signals    []string
}

// SentimentProvider scores the sentiment of a piece of text.
type SentimentProvider interface {
	Name() string
	Score(ctx context.Context, text string) (Sentiment, error)
}

// Embedder turns text chunks into vectors.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, chunks []string) ([][]float64, error)
}

// ScoredChunk is one semantic-search hit.
type ScoredChunk struct {
	Chunk string
	Score float64
}

// SemanticSearcher finds the top-K chunks in a corpus matching a query.
type SemanticSearcher interface {
	Name() string
	TopK(ctx context.Context, query string, k int, corpusID string) ([]ScoredChunk, error)
}
