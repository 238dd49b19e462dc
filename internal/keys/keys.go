// Package keys implements the Key & Namespace Registry (C1): canonical
// cache-key construction and parsing, and quarter/fiscal-year
// normalization. Cache-key formation is centralized here; no other
// package builds a key string by hand (spec §9 Design Note).
package keys

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

// Namespace groups cache keys by logical domain.
type Namespace string

const (
	NamespaceConcall  Namespace = "concall"
	NamespaceFX       Namespace = "fx"
	NamespaceBars     Namespace = "bars"
	NamespaceNews     Namespace = "news"
	NamespaceSummary  Namespace = "summary"
	NamespaceRAG      Namespace = "rag"
	NamespaceScreen   Namespace = "screen"
)

// Kind further qualifies a namespace, e.g. "transcript" within "concall".
type Kind string

const (
	KindTranscript  Kind = "transcript"
	KindDerivative  Kind = "derivative"
	KindRate        Kind = "rate"
	KindRange       Kind = "range"
	KindArticles    Kind = "articles"
	KindSummary     Kind = "summary"
	KindSentiment   Kind = "sentiment"
	KindChunks      Kind = "rag-chunks"
	KindSnapshot    Kind = "snapshot"
)

// Quarter is one of the four normalized fiscal-quarter tokens.
type Quarter string

const (
	Q1 Quarter = "Q1"
	Q2 Quarter = "Q2"
	Q3 Quarter = "Q3"
	Q4 Quarter = "Q4"
)

// Key is a structured cache-key value: namespace : kind : identity
// fields... : version. Fields render in a fixed order per Kind so that
// identical inputs always produce identical keys (spec §8 invariant 1).
type Key struct {
	Namespace Namespace
	Kind      Kind
	Fields    []string
	Version   int
}

// String renders the canonical wire format: "ns:kind:f1:f2:...:vN".
func (k Key) String() string {
	parts := make([]string, 0, len(k.Fields)+3)
	parts = append(parts, string(k.Namespace), string(k.Kind))
	parts = append(parts, k.Fields...)
	parts = append(parts, fmt.Sprintf("v%d", k.Version))
	return strings.Join(parts, ":")
}

// Prefix renders the key without its version suffix, for scan() prefix
// queries over a whole key class.
func (k Key) Prefix() string {
	parts := make([]string, 0, len(k.Fields)+2)
	parts = append(parts, string(k.Namespace), string(k.Kind))
	parts = append(parts, k.Fields...)
	return strings.Join(parts, ":") + ":"
}

// Transcript builds the cache key for a concall transcript, e.g.
// "concall:transcript:RELIANCE.NS:Q1:2025:v1".
func Transcript(symbol string, quarter Quarter, fiscalYear int, version int) Key {
	return Key{
		Namespace: NamespaceConcall,
		Kind:      KindTranscript,
		Fields:    []string{symbol, string(quarter), strconv.Itoa(fiscalYear)},
		Version:   version,
	}
}

// TranscriptDerivative builds the cache key for a derived transcript
// artifact (summary mode, sentiment, or RAG chunks).
func TranscriptDerivative(symbol string, quarter Quarter, fiscalYear int, derivativeKind Kind, version int) Key {
	return Key{
		Namespace: NamespaceConcall,
		Kind:      derivativeKind,
		Fields:    []string{symbol, string(quarter), strconv.Itoa(fiscalYear)},
		Version:   version,
	}
}

// FXRate builds the cache key for an exchange rate, e.g. "fx:rate:USD:INR:v1".
func FXRate(from, to string, version int) Key {
	return Key{
		Namespace: NamespaceFX,
		Kind:      KindRate,
		Fields:    []string{strings.ToUpper(from), strings.ToUpper(to)},
		Version:   version,
	}
}

// Bars builds the cache key for a price-bar range request.
func Bars(symbol, interval, start, end string, version int) Key {
	return Key{
		Namespace: NamespaceBars,
		Kind:      KindRange,
		Fields:    []string{symbol, interval, start, end},
		Version:   version,
	}
}

// News builds the cache key for a news query window.
func News(queryHash string, windowDays int, version int) Key {
	return Key{
		Namespace: NamespaceNews,
		Kind:      KindArticles,
		Fields:    []string{queryHash, strconv.Itoa(windowDays)},
		Version:   version,
	}
}

// Screening builds the cache key for a screening snapshot.
func Screening(strategy, asOfDate string, version int) Key {
	return Key{
		Namespace: NamespaceScreen,
		Kind:      KindSnapshot,
		Fields:    []string{strategy, asOfDate},
		Version:   version,
	}
}

// Parse recovers the structured components of a rendered key string.
// Returns an errs.InvalidInput error if the format is malformed.
func Parse(s string) (Key, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return Key{}, errs.Newf(errs.InvalidInput, "cache key %q has too few segments", s)
	}
	last := parts[len(parts)-1]
	if !strings.HasPrefix(last, "v") {
		return Key{}, errs.Newf(errs.InvalidInput, "cache key %q missing version suffix", s)
	}
	version, err := strconv.Atoi(strings.TrimPrefix(last, "v"))
	if err != nil {
		return Key{}, errs.Newf(errs.InvalidInput, "cache key %q has non-numeric version: %s", s, err)
	}
	return Key{
		Namespace: Namespace(parts[0]),
		Kind:      Kind(parts[1]),
		Fields:    parts[2 : len(parts)-1],
		Version:   version,
	}, nil
}

// NormalizeQuarter maps free-form quarter inputs ("q1", "1", "Quarter 1",
// "Q1") to a canonical Quarter token (spec §4.1 edge cases).
func NormalizeQuarter(raw string) (Quarter, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "QUARTER ")
	s = strings.TrimPrefix(s, "QUARTER")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Q")
	s = strings.TrimSpace(s)

	switch s {
	case "1":
		return Q1, nil
	case "2":
		return Q2, nil
	case "3":
		return Q3, nil
	case "4":
		return Q4, nil
	default:
		return "", errs.Newf(errs.InvalidInput, "invalid quarter %q", raw)
	}
}

// ValidateFiscalYear enforces 2000 <= y <= currentYear+1 (spec §4.1).
func ValidateFiscalYear(year int) error {
	max := time.Now().UTC().Year() + 1
	if year < 2000 || year > max {
		return errs.Newf(errs.InvalidInput, "fiscal year %d out of range [2000, %d]", year, max)
	}
	return nil
}
