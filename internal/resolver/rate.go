package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/maverick-mcp/maverick-mcp-go/internal/keys"
	"github.com/maverick-mcp/maverick-mcp-go/internal/provider"
	"github.com/maverick-mcp/maverick-mcp-go/internal/store"
)

type rateResult struct {
	rate      float64
	sourceTag string
}

type rateCall struct {
	rate float64
	tag  string
}

// GetRate implements the Exchange Rate priority table (spec §4.6): L1 →
// L1′ → L2 (same-day row) → primary FX API → secondary FX → approximate
// table. The last step is just another (lowest-priority) registered
// RateProvider, so no special-casing is needed in the cascade itself.
func (r *Resolver) GetRate(ctx context.Context, from, to string) (float64, string, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	key := keys.FXRate(from, to, 1).String()

	v, _, err := r.dedup.Do(key, func() (any, error) {
		return r.resolveRate(ctx, from, to, key)
	})
	if err != nil {
		return 0, "", err
	}
	res := v.(rateResult)
	return res.rate, res.sourceTag, nil
}

func (r *Resolver) resolveRate(ctx context.Context, from, to, key string) (rateResult, error) {
	var cached rateResult
	if r.getCached(ctx, key, &cached) {
		return cached, nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	row, err := r.gw.ExchangeRates().GetByKey(ctx, from, to, today.Format(dateLayout))
	if err == nil && row.Date.Truncate(24*time.Hour).Equal(today) {
		res := rateResult{rate: row.Rate, sourceTag: row.SourceTag}
		r.setCached(ctx, key, res, r.cfg.RateTTL, row.SourceTag)
		return res, nil
	}

	corrID := newCorrelationID()
	var attempts []attempt
	for _, desc := range r.providers.Ordered(provider.CapabilityRate) {
		inst, ok := r.providers.Instance(provider.CapabilityRate, desc.Name)
		if !ok {
			continue
		}
		rp := inst.(provider.RateProvider)

		raw, err := r.breakers.Execute(ctx, endpointKey(provider.CapabilityRate, desc.Name), func(ctx context.Context) (any, error) {
			rate, tag, err := rp.GetRate(ctx, from, to, nil)
			if err != nil {
				return nil, err
			}
			return rateCall{rate: rate, tag: tag}, nil
		})
		if err != nil {
			a := attempt{provider: desc.Name, err: err}
			attempts = append(attempts, a)
			r.logAttemptFailure(string(provider.CapabilityRate), corrID, a)
			if shouldTryNextProvider(err) {
				continue
			}
			return rateResult{}, err
		}

		rc := raw.(rateCall)
		if writeErr := r.gw.ExchangeRates().Upsert(ctx, store.ExchangeRate{From: from, To: to, Date: today, Rate: rc.rate, SourceTag: rc.tag}); writeErr != nil {
			r.logger.Warn("exchange rate write-through failed", "from", from, "to", to, "error", writeErr)
		}
		res := rateResult{rate: rc.rate, sourceTag: rc.tag}
		r.setCached(ctx, key, res, r.cfg.RateTTL, rc.tag)
		return res, nil
	}

	return rateResult{}, r.escalate(attempts, string(provider.CapabilityRate), corrID)
}
