package resilience

import (
	"context"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

// FallbackStrategy is one rung in a fallback chain: something that may be
// able to answer a request, and the function that answers it (spec
// §4.4.3 Fallback chain).
type FallbackStrategy struct {
	Name       string
	CanExecute func(ctx context.Context) bool
	Execute    func(ctx context.Context) (any, error)
}

// FallbackChain tries each strategy in order, moving to the next only on
// a Transient/UpstreamUnavailable/CircuitOpen/QuotaExceeded failure. Any
// other error (Permanent, InvalidInput, NotFound, ...) stops the chain
// immediately (spec §4.4.3: "a
// permanent error... does not fall through").
type FallbackChain struct {
	strategies []FallbackStrategy
}

// NewFallbackChain builds a chain from strategies in priority order.
func NewFallbackChain(strategies ...FallbackStrategy) *FallbackChain {
	return &FallbackChain{strategies: strategies}
}

// Run executes the chain, returning the first success or the last error
// observed if every eligible strategy failed.
func (c *FallbackChain) Run(ctx context.Context) (any, string, error) {
	var lastErr error
	for _, s := range c.strategies {
		if s.CanExecute != nil && !s.CanExecute(ctx) {
			continue
		}
		result, err := s.Execute(ctx)
		if err == nil {
			return result, s.Name, nil
		}
		lastErr = err
		if !shouldFallThrough(err) {
			return nil, s.Name, err
		}
	}
	if lastErr == nil {
		return nil, "", errs.New(errs.UpstreamUnavailable, "no fallback strategy was eligible to run")
	}
	return nil, "", lastErr
}

func shouldFallThrough(err error) bool {
	switch errs.KindOf(err) {
	case errs.Transient, errs.UpstreamUnavailable, errs.CircuitOpen, errs.QuotaExceeded:
		return true
	default:
		return false
	}
}
