package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/keys"
	"github.com/maverick-mcp/maverick-mcp-go/internal/market"
	"github.com/maverick-mcp/maverick-mcp-go/internal/provider"
	"github.com/maverick-mcp/maverick-mcp-go/internal/store"
)

// GetTranscript implements the Transcript priority table (spec §4.6): L1
// → L1′ → L2 always if present → company IR scrape → exchange-filing
// scrape → aggregator scrape. Once a transcript is stored it is
// authoritative forever; forceRefresh bypasses that (spec §3 Transcript
// "never auto-expired", §4.6 "Transcript immutability").
func (r *Resolver) GetTranscript(ctx context.Context, rawSymbol string, quarter keys.Quarter, fiscalYear int, forceRefresh bool) (provider.TranscriptResult, error) {
	canonical, err := market.SymbolToMarket(rawSymbol)
	if err != nil {
		return provider.TranscriptResult{}, err
	}
	symbol := canonical.WithSuffix()

	if err := keys.ValidateFiscalYear(fiscalYear); err != nil {
		return provider.TranscriptResult{}, err
	}

	key := keys.Transcript(symbol, quarter, fiscalYear, 1).String()

	v, _, err := r.dedup.Do(key, func() (any, error) {
		return r.resolveTranscript(ctx, symbol, quarter, fiscalYear, forceRefresh, key)
	})
	if err != nil {
		return provider.TranscriptResult{}, err
	}
	return v.(provider.TranscriptResult), nil
}

func (r *Resolver) resolveTranscript(ctx context.Context, symbol string, quarter keys.Quarter, fiscalYear int, forceRefresh bool, key string) (provider.TranscriptResult, error) {
	if !forceRefresh {
		var cached provider.TranscriptResult
		if r.getCached(ctx, key, &cached) {
			return cached, nil
		}
		if r.negativelyCached(ctx, key) {
			return provider.TranscriptResult{}, errs.Newf(errs.UpstreamUnavailable, "all providers recently failed for transcript %s %s %d", symbol, quarter, fiscalYear)
		}

		row, err := r.gw.Transcripts().GetByIdentity(ctx, store.TranscriptIdentity{Symbol: symbol, Quarter: string(quarter), FiscalYear: fiscalYear})
		if err == nil {
			result := provider.TranscriptResult{Text: row.Text, SourceTag: row.SourceTag, WordCount: row.WordCount}
			r.setCached(ctx, key, result, r.cfg.TranscriptTTL, row.SourceTag)
			return result, nil
		}
		if !errors.Is(err, store.ErrNotFound) && errs.KindOf(err) != errs.NotFound {
			r.logger.Warn("transcript store lookup failed", "symbol", symbol, "error", err)
		}
	}

	corrID := newCorrelationID()
	var attempts []attempt
	for _, desc := range r.providers.Ordered(provider.CapabilityTranscript) {
		inst, ok := r.providers.Instance(provider.CapabilityTranscript, desc.Name)
		if !ok {
			continue
		}
		tp := inst.(provider.TranscriptProvider)

		raw, err := r.breakers.Execute(ctx, endpointKey(provider.CapabilityTranscript, desc.Name), func(ctx context.Context) (any, error) {
			return tp.GetTranscript(ctx, symbol, string(quarter), fiscalYear)
		})
		if err != nil {
			a := attempt{provider: desc.Name, err: err}
			attempts = append(attempts, a)
			r.logAttemptFailure(string(provider.CapabilityTranscript), corrID, a)
			if shouldTryNextProvider(err) {
				continue
			}
			return provider.TranscriptResult{}, err
		}

		result := raw.(provider.TranscriptResult)
		if writeErr := r.gw.Transcripts().Upsert(ctx, store.Transcript{
			Symbol: symbol, Quarter: string(quarter), FiscalYear: fiscalYear,
			Text: result.Text, SourceTag: result.SourceTag, FetchedAt: time.Now(), WordCount: result.WordCount,
		}, forceRefresh); writeErr != nil {
			r.logger.Warn("transcript write-through failed", "symbol", symbol, "error", writeErr)
		}
		r.setCached(ctx, key, result, r.cfg.TranscriptTTL, result.SourceTag)
		return result, nil
	}

	err := r.escalate(attempts, string(provider.CapabilityTranscript), corrID)
	if errs.KindOf(err) == errs.UpstreamUnavailable {
		r.markNegative(ctx, key)
	}
	return provider.TranscriptResult{}, err
}
