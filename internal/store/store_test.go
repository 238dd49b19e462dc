package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) Gateway {
	t.Helper()
	gw, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, gw.Migrate(context.Background()))
	t.Cleanup(gw.Close)
	return gw
}

func TestStockRoundTrip(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	s := Stock{Symbol: "RELIANCE.NS", Market: "NSE", Country: "IN", Currency: "INR", Sector: "Energy", Active: true, Indexes: []string{"NIFTY50"}}
	require.NoError(t, gw.Stocks().Upsert(ctx, s))

	got, err := gw.Stocks().GetBySymbol(ctx, "RELIANCE.NS")
	require.NoError(t, err)
	assert.Equal(t, s.Symbol, got.Symbol)
	assert.Equal(t, s.Market, got.Market)
	assert.Equal(t, s.Indexes, got.Indexes)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStockGetMissingReturnsNotFound(t *testing.T) {
	gw := newTestGateway(t)
	_, err := gw.Stocks().GetBySymbol(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPriceBarBulkUpsertIdempotent(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	rows := []PriceBar{
		{Symbol: "AAPL", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 185, High: 186, Low: 184, Close: 185.5, Volume: 1000},
		{Symbol: "AAPL", Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 185.5, High: 188, Low: 185, Close: 187, Volume: 1200},
	}

	require.NoError(t, gw.PriceBars().BulkUpsert(ctx, rows))
	first, err := gw.PriceBars().QueryBy(ctx, PriceBarPredicate{Symbol: "AAPL", From: rows[0].Date, To: rows[1].Date})
	require.NoError(t, err)
	require.Len(t, first, 2)

	require.NoError(t, gw.PriceBars().BulkUpsert(ctx, rows))
	second, err := gw.PriceBars().QueryBy(ctx, PriceBarPredicate{Symbol: "AAPL", From: rows[0].Date, To: rows[1].Date})
	require.NoError(t, err)
	require.Len(t, second, 2)

	assert.Equal(t, first[0].Close, second[0].Close)
	assert.Equal(t, first[1].Close, second[1].Close)
}

func TestPriceBarQueryOrderingSymbolAscDateDesc(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	rows := []PriceBar{
		{Symbol: "AAPL", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 1},
		{Symbol: "AAPL", Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: 2},
		{Symbol: "AAPL", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 3},
	}
	require.NoError(t, gw.PriceBars().BulkUpsert(ctx, rows))

	got, err := gw.PriceBars().QueryBy(ctx, PriceBarPredicate{
		Symbol: "AAPL",
		From:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Date.After(got[1].Date))
	assert.True(t, got[1].Date.After(got[2].Date))
}

func TestTranscriptImmutability(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	original := Transcript{
		Symbol: "RELIANCE.NS", Quarter: "Q1", FiscalYear: 2025,
		Text: "original transcript text mentioning Mukesh Ambani CEO", SourceTag: "IR_WEBSITE",
		FetchedAt: time.Now(), WordCount: 9000,
	}
	require.NoError(t, gw.Transcripts().Upsert(ctx, original, false))

	attempt := original
	attempt.Text = "a corrupted overwrite"
	require.NoError(t, gw.Transcripts().Upsert(ctx, attempt, false))

	got, err := gw.Transcripts().GetByIdentity(ctx, original.Identity())
	require.NoError(t, err)
	assert.Equal(t, original.Text, got.Text, "upsert without force must not overwrite an existing transcript")

	forced := original
	forced.Text = "corrected via explicit refresh"
	require.NoError(t, gw.Transcripts().Upsert(ctx, forced, true))

	got2, err := gw.Transcripts().GetByIdentity(ctx, original.Identity())
	require.NoError(t, err)
	assert.Equal(t, forced.Text, got2.Text, "force=true must overwrite")
}

func TestTranscriptDerivativeRoundTrip(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	tr := Transcript{Symbol: "INFY.NS", Quarter: "Q2", FiscalYear: 2025, Text: "text", SourceTag: "IR_WEBSITE", FetchedAt: time.Now(), WordCount: 600}
	require.NoError(t, gw.Transcripts().Upsert(ctx, tr, false))
	got, err := gw.Transcripts().GetByIdentity(ctx, tr.Identity())
	require.NoError(t, err)

	deriv := TranscriptDerivative{TranscriptID: got.ID, Kind: DerivativeSentiment, Payload: []byte(`{"overall":4}`), ModelTag: "claude-opus"}
	require.NoError(t, gw.TranscriptDerivatives().Upsert(ctx, deriv))

	gotDeriv, err := gw.TranscriptDerivatives().GetByTranscriptAndKind(ctx, got.ID, DerivativeSentiment)
	require.NoError(t, err)
	assert.Equal(t, string(deriv.Payload), string(gotDeriv.Payload))
}

func TestExchangeRateRoundTripAndQuery(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	rate := ExchangeRate{From: "USD", To: "INR", Date: time.Date(2025, 7, 30, 0, 0, 0, 0, time.UTC), Rate: 83.5, SourceTag: "EXCHANGE_RATE_API"}
	require.NoError(t, gw.ExchangeRates().Upsert(ctx, rate))

	got, err := gw.ExchangeRates().GetByKey(ctx, "USD", "INR", "2025-07-30")
	require.NoError(t, err)
	assert.InDelta(t, 83.5, got.Rate, 0.0001)

	rows, err := gw.ExchangeRates().QueryBy(ctx, ExchangeRatePredicate{From: "USD", To: "INR"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestIRMappingRoundTrip(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	m := IRMapping{
		Ticker: "RELIANCE.NS", CompanyName: "Reliance Industries", IRBaseURL: "https://www.ril.com/ir",
		ConcallSectionXPath: "//div[@class='transcripts']", Market: "NSE", Country: "IN", Active: true,
	}
	require.NoError(t, gw.IRMappings().Upsert(ctx, m))

	got, err := gw.IRMappings().GetByTicker(ctx, "RELIANCE.NS")
	require.NoError(t, err)
	assert.Equal(t, m.IRBaseURL, got.IRBaseURL)

	active, err := gw.IRMappings().QueryBy(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestScreeningBulkUpsertIdempotentAndLatestSnapshot(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	day1 := time.Date(2025, 7, 29, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 7, 30, 0, 0, 0, 0, time.UTC)

	require.NoError(t, gw.Screenings().BulkUpsert(ctx, []ScreeningSnapshot{
		{Strategy: "momentum", AsOfDate: day1, Rank: 1, Symbol: "AAPL", Payload: []byte(`{}`)},
	}))
	require.NoError(t, gw.Screenings().BulkUpsert(ctx, []ScreeningSnapshot{
		{Strategy: "momentum", AsOfDate: day2, Rank: 1, Symbol: "MSFT", Payload: []byte(`{}`)},
	}))

	latest, err := gw.Screenings().QueryBy(ctx, ScreeningPredicate{Strategy: "momentum"})
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "MSFT", latest[0].Symbol)

	require.NoError(t, gw.Screenings().BulkUpsert(ctx, []ScreeningSnapshot{
		{Strategy: "momentum", AsOfDate: day2, Rank: 1, Symbol: "MSFT", Payload: []byte(`{}`)},
	}))
	latestAgain, err := gw.Screenings().QueryBy(ctx, ScreeningPredicate{Strategy: "momentum"})
	require.NoError(t, err)
	assert.Len(t, latestAgain, 1)
}
