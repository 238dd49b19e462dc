package resolver

import (
	"context"
	"encoding/json"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/keys"
	"github.com/maverick-mcp/maverick-mcp-go/internal/market"
	"github.com/maverick-mcp/maverick-mcp-go/internal/provider"
	"github.com/maverick-mcp/maverick-mcp-go/internal/store"
)

// Summarize implements the AI Summary priority table (spec §4.6): L1 →
// L1′ → L2 derivative row → LLM gateway call. Stored derivatives are
// authoritative; the gateway is called only on miss or forceRegenerate.
func (r *Resolver) Summarize(ctx context.Context, rawSymbol string, quarter keys.Quarter, fiscalYear int, mode provider.SummaryMode, forceRegenerate bool) (provider.Summary, error) {
	canonical, err := market.SymbolToMarket(rawSymbol)
	if err != nil {
		return provider.Summary{}, err
	}
	symbol := canonical.WithSuffix()

	key := keys.TranscriptDerivative(symbol, quarter, fiscalYear, keys.Kind("summary-"+string(mode)), 1).String()

	v, _, err := r.dedup.Do(key, func() (any, error) {
		return r.resolveSummary(ctx, symbol, quarter, fiscalYear, mode, forceRegenerate, key)
	})
	if err != nil {
		return provider.Summary{}, err
	}
	return v.(provider.Summary), nil
}

func (r *Resolver) resolveSummary(ctx context.Context, symbol string, quarter keys.Quarter, fiscalYear int, mode provider.SummaryMode, forceRegenerate bool, key string) (provider.Summary, error) {
	if !forceRegenerate {
		var cached provider.Summary
		if r.getCached(ctx, key, &cached) {
			return cached, nil
		}
	}

	transcriptRow, err := r.gw.Transcripts().GetByIdentity(ctx, store.TranscriptIdentity{Symbol: symbol, Quarter: string(quarter), FiscalYear: fiscalYear})
	if err != nil {
		return provider.Summary{}, errs.Newf(errs.NotFound, "no transcript stored for %s %s %d to summarize", symbol, quarter, fiscalYear)
	}

	if !forceRegenerate {
		derivRow, err := r.gw.TranscriptDerivatives().GetByTranscriptAndKind(ctx, transcriptRow.ID, store.DerivativeSummary)
		if err == nil {
			var summary provider.Summary
			if jsonErr := json.Unmarshal(derivRow.Payload, &summary); jsonErr == nil && summary.Mode == mode {
				r.setCached(ctx, key, summary, r.cfg.SummaryTTL, derivRow.ModelTag)
				return summary, nil
			}
		}
	}

	corrID := newCorrelationID()
	var attempts []attempt
	for _, desc := range r.providers.Ordered(provider.CapabilitySummary) {
		inst, ok := r.providers.Instance(provider.CapabilitySummary, desc.Name)
		if !ok {
			continue
		}
		sp := inst.(provider.SummaryProvider)

		raw, err := r.breakers.Execute(ctx, endpointKey(provider.CapabilitySummary, desc.Name), func(ctx context.Context) (any, error) {
			return sp.Summarize(ctx, transcriptRow.Text, mode)
		})
		if err != nil {
			a := attempt{provider: desc.Name, err: err}
			attempts = append(attempts, a)
			r.logAttemptFailure(string(provider.CapabilitySummary), corrID, a)
			if shouldTryNextProvider(err) {
				continue
			}
			return provider.Summary{}, err
		}

		summary := raw.(provider.Summary)
		r.writeThroughDerivative(ctx, transcriptRow.ID, store.DerivativeSummary, summary, summary.ModelTag)
		r.setCached(ctx, key, summary, r.cfg.SummaryTTL, summary.ModelTag)
		return summary, nil
	}

	return provider.Summary{}, r.escalate(attempts, string(provider.CapabilitySummary), corrID)
}

// Sentiment implements the Sentiment priority table, identical in shape
// to Summarize but with no mode dimension.
func (r *Resolver) Sentiment(ctx context.Context, rawSymbol string, quarter keys.Quarter, fiscalYear int, forceRegenerate bool) (provider.Sentiment, error) {
	canonical, err := market.SymbolToMarket(rawSymbol)
	if err != nil {
		return provider.Sentiment{}, err
	}
	symbol := canonical.WithSuffix()

	key := keys.TranscriptDerivative(symbol, quarter, fiscalYear, keys.KindSentiment, 1).String()

	v, _, err := r.dedup.Do(key, func() (any, error) {
		return r.resolveSentiment(ctx, symbol, quarter, fiscalYear, forceRegenerate, key)
	})
	if err != nil {
		return provider.Sentiment{}, err
	}
	return v.(provider.Sentiment), nil
}

func (r *Resolver) resolveSentiment(ctx context.Context, symbol string, quarter keys.Quarter, fiscalYear int, forceRegenerate bool, key string) (provider.Sentiment, error) {
	if !forceRegenerate {
		var cached provider.Sentiment
		if r.getCached(ctx, key, &cached) {
			return cached, nil
		}
	}

	transcriptRow, err := r.gw.Transcripts().GetByIdentity(ctx, store.TranscriptIdentity{Symbol: symbol, Quarter: string(quarter), FiscalYear: fiscalYear})
	if err != nil {
		return provider.Sentiment{}, errs.Newf(errs.NotFound, "no transcript stored for %s %s %d to score", symbol, quarter, fiscalYear)
	}

	if !forceRegenerate {
		derivRow, err := r.gw.TranscriptDerivatives().GetByTranscriptAndKind(ctx, transcriptRow.ID, store.DerivativeSentiment)
		if err == nil {
			var sentiment provider.Sentiment
			if jsonErr := json.Unmarshal(derivRow.Payload, &sentiment); jsonErr == nil {
				r.setCached(ctx, key, sentiment, r.cfg.SummaryTTL, derivRow.ModelTag)
				return sentiment, nil
			}
		}
	}

	corrID := newCorrelationID()
	var attempts []attempt
	for _, desc := range r.providers.Ordered(provider.CapabilitySentiment) {
		inst, ok := r.providers.Instance(provider.CapabilitySentiment, desc.Name)
		if !ok {
			continue
		}
		sp := inst.(provider.SentimentProvider)

		raw, err := r.breakers.Execute(ctx, endpointKey(provider.CapabilitySentiment, desc.Name), func(ctx context.Context) (any, error) {
			return sp.Score(ctx, transcriptRow.Text)
		})
		if err != nil {
			a := attempt{provider: desc.Name, err: err}
			attempts = append(attempts, a)
			r.logAttemptFailure(string(provider.CapabilitySentiment), corrID, a)
			if shouldTryNextProvider(err) {
				continue
			}
			return provider.Sentiment{}, err
		}

		sentiment := raw.(provider.Sentiment)
		r.writeThroughDerivative(ctx, transcriptRow.ID, store.DerivativeSentiment, sentiment, desc.Name)
		r.setCached(ctx, key, sentiment, r.cfg.SummaryTTL, desc.Name)
		return sentiment, nil
	}

	return provider.Sentiment{}, r.escalate(attempts, string(provider.CapabilitySentiment), corrID)
}

func (r *Resolver) writeThroughDerivative(ctx context.Context, transcriptID int64, kind store.DerivativeKind, value any, modelTag string) {
	payload, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("derivative marshal failed", "kind", kind, "error", err)
		return
	}
	if err := r.gw.TranscriptDerivatives().Upsert(ctx, store.TranscriptDerivative{
		TranscriptID: transcriptID, Kind: kind, Payload: payload, ModelTag: modelTag,
	}); err != nil {
		r.logger.Warn("derivative write-through failed", "kind", kind, "error", err)
	}
}
