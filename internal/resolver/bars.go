package resolver

import (
	"context"
	"time"

	"github.com/maverick-mcp/maverick-mcp-go/internal/keys"
	"github.com/maverick-mcp/maverick-mcp-go/internal/market"
	"github.com/maverick-mcp/maverick-mcp-go/internal/provider"
	"github.com/maverick-mcp/maverick-mcp-go/internal/store"
)

const dateLayout = "2006-01-02"

// GetBars implements the Bars/Prices priority table (spec §4.6): L1 →
// L1′ → L2 (if the range is entirely historical) → primary vendor →
// secondary vendor.
func (r *Resolver) GetBars(ctx context.Context, rawSymbol string, from, to time.Time, interval string) ([]provider.Bar, string, error) {
	canonical, err := market.SymbolToMarket(rawSymbol)
	if err != nil {
		return nil, "", err
	}
	symbol := canonical.WithSuffix()

	key := keys.Bars(symbol, interval, from.Format(dateLayout), to.Format(dateLayout), 1).String()

	v, _, err := r.dedup.Do(key, func() (any, error) {
		return r.resolveBars(ctx, symbol, from, to, interval, key)
	})
	if err != nil {
		return nil, "", err
	}
	result := v.(barsResult)
	return result.bars, result.sourceTag, nil
}

type barsResult struct {
	bars      []provider.Bar
	sourceTag string
}

func (r *Resolver) resolveBars(ctx context.Context, symbol string, from, to time.Time, interval, key string) (barsResult, error) {
	var cached []provider.Bar
	if r.getCached(ctx, key, &cached) {
		return barsResult{bars: cached, sourceTag: "cache"}, nil
	}

	if !to.After(time.Now().Truncate(24 * time.Hour)) {
		rows, err := r.gw.PriceBars().QueryBy(ctx, store.PriceBarPredicate{Symbol: symbol, From: from, To: to})
		if err == nil && len(rows) > 0 {
			bars := priceBarsToBars(rows)
			r.setCached(ctx, key, bars, r.cfg.BarsTTL, "L2")
			return barsResult{bars: bars, sourceTag: "L2"}, nil
		}
	}

	corrID := newCorrelationID()
	var attempts []attempt
	for _, desc := range r.providers.Ordered(provider.CapabilityBars) {
		inst, ok := r.providers.Instance(provider.CapabilityBars, desc.Name)
		if !ok {
			continue
		}
		bp := inst.(provider.BarsProvider)

		raw, err := r.breakers.Execute(ctx, endpointKey(provider.CapabilityBars, desc.Name), func(ctx context.Context) (any, error) {
			return bp.GetBars(ctx, symbol, from, to, interval)
		})
		if err != nil {
			a := attempt{provider: desc.Name, err: err}
			attempts = append(attempts, a)
			r.logAttemptFailure(string(provider.CapabilityBars), corrID, a)
			if shouldTryNextProvider(err) {
				continue
			}
			return barsResult{}, err
		}

		bars := raw.([]provider.Bar)
		r.writeThroughBars(ctx, symbol, bars, desc.Name)
		r.setCached(ctx, key, bars, r.cfg.BarsTTL, desc.Name)
		return barsResult{bars: bars, sourceTag: desc.Name}, nil
	}

	return barsResult{}, r.escalate(attempts, string(provider.CapabilityBars), corrID)
}

func (r *Resolver) writeThroughBars(ctx context.Context, symbol string, bars []provider.Bar, sourceTag string) {
	rows := make([]store.PriceBar, len(bars))
	for i, b := range bars {
		rows[i] = store.PriceBar{Symbol: symbol, Date: b.Date, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
	}
	if err := r.gw.PriceBars().BulkUpsert(ctx, rows); err != nil {
		r.logger.Warn("price bar write-through failed", "symbol", symbol, "source", sourceTag, "error", err)
	}
}

func priceBarsToBars(rows []store.PriceBar) []provider.Bar {
	out := make([]provider.Bar, len(rows))
	for i, row := range rows {
		out[i] = provider.Bar{Date: row.Date, Open: row.Open, High: row.High, Low: row.Low, Close: row.Close, Volume: row.Volume}
	}
	return out
}
