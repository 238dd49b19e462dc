package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

// BulkWriteError is returned by BulkUpsert when a transaction rolls back
// partway through (spec §4.3: "partial failure rolls the entire batch
// back").
type BulkWriteError struct {
	FirstFailing int
	Count        int
	Cause        error
}

func (e *BulkWriteError) Error() string {
	return fmt.Sprintf("bulk write failed at row %d of %d: %v", e.FirstFailing, e.Count, e.Cause)
}

func (e *BulkWriteError) Unwrap() error { return e.Cause }

// ErrNotFound is returned by getByKey-style lookups that find no row.
var ErrNotFound = errs.New(errs.NotFound, "record not found")

// Gateway is the full Persistent Store Gateway surface (C3). Exactly one
// implementation is active per process: pgGateway (Postgres via pgx) when
// DATABASE_URL is set, sqliteGateway (embedded, modernc.org/sqlite)
// otherwise (spec §6 configuration: "if omitted, use embedded file
// store").
type Gateway interface {
	Stocks() StockRepository
	PriceBars() PriceBarRepository
	Transcripts() TranscriptRepository
	TranscriptDerivatives() TranscriptDerivativeRepository
	IRMappings() IRMappingRepository
	ExchangeRates() ExchangeRateRepository
	Screenings() ScreeningRepository

	// Migrate applies forward-only schema migrations. Presence of an
	// unknown future migration marker is fatal (spec §4.3 Schema
	// versioning).
	Migrate(ctx context.Context) error

	// Close releases the underlying connection pool / file handle.
	Close()
}

type StockRepository interface {
	GetBySymbol(ctx context.Context, symbol string) (Stock, error)
	Upsert(ctx context.Context, s Stock) error
	BulkUpsert(ctx context.Context, rows []Stock) error
	QueryBy(ctx context.Context, p StockPredicate) ([]Stock, error)
}

type PriceBarRepository interface {
	GetBySymbolDate(ctx context.Context, symbol string, date string) (PriceBar, error)
	Upsert(ctx context.Context, b PriceBar) error
	BulkUpsert(ctx context.Context, rows []PriceBar) error
	QueryBy(ctx context.Context, p PriceBarPredicate) ([]PriceBar, error)
}

type TranscriptRepository interface {
	GetByIdentity(ctx context.Context, id TranscriptIdentity) (Transcript, error)
	// Upsert refuses to overwrite an existing row unless force is true
	// (spec §4.3 Transcript policy).
	Upsert(ctx context.Context, t Transcript, force bool) error
	BulkUpsert(ctx context.Context, rows []Transcript, force bool) error
}

type TranscriptDerivativeRepository interface {
	GetByTranscriptAndKind(ctx context.Context, transcriptID int64, kind DerivativeKind) (TranscriptDerivative, error)
	Upsert(ctx context.Context, d TranscriptDerivative) error
}

type IRMappingRepository interface {
	GetByTicker(ctx context.Context, ticker string) (IRMapping, error)
	Upsert(ctx context.Context, m IRMapping) error
	BulkUpsert(ctx context.Context, rows []IRMapping) error
	QueryBy(ctx context.Context, activeOnly bool) ([]IRMapping, error)
}

type ExchangeRateRepository interface {
	GetByKey(ctx context.Context, from, to string, date string) (ExchangeRate, error)
	Upsert(ctx context.Context, r ExchangeRate) error
	QueryBy(ctx context.Context, p ExchangeRatePredicate) ([]ExchangeRate, error)
}

type ScreeningRepository interface {
	BulkUpsert(ctx context.Context, rows []ScreeningSnapshot) error
	QueryBy(ctx context.Context, p ScreeningPredicate) ([]ScreeningSnapshot, error)
}

// asNotFound normalizes a "no rows" condition from either backend driver
// into the taxonomy's NotFound kind.
func asNotFound(err error, noRowsErrs ...error) error {
	for _, sentinel := range noRowsErrs {
		if errors.Is(err, sentinel) {
			return ErrNotFound
		}
	}
	return err
}
