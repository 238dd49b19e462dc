package resilience

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

func TestFallbackChainUsesFirstEligible(t *testing.T) {
	ctx := context.Background()
	chain := NewFallbackChain(
		FallbackStrategy{
			Name:       "tiingo",
			CanExecute: func(ctx context.Context) bool { return true },
			Execute:    func(ctx context.Context) (any, error) { return "tiingo-data", nil },
		},
		FallbackStrategy{
			Name:       "secondary",
			CanExecute: func(ctx context.Context) bool { return true },
			Execute:    func(ctx context.Context) (any, error) { return "secondary-data", nil },
		},
	)

	result, name, err := chain.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tiingo-data", result)
	assert.Equal(t, "tiingo", name)
}

func TestFallbackChainFallsThroughOnTransient(t *testing.T) {
	ctx := context.Background()
	chain := NewFallbackChain(
		FallbackStrategy{
			Name:       "tiingo",
			CanExecute: func(ctx context.Context) bool { return true },
			Execute:    func(ctx context.Context) (any, error) { return nil, errs.New(errs.Transient, "timeout") },
		},
		FallbackStrategy{
			Name:       "secondary",
			CanExecute: func(ctx context.Context) bool { return true },
			Execute:    func(ctx context.Context) (any, error) { return "secondary-data", nil },
		},
	)

	result, name, err := chain.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secondary-data", result)
	assert.Equal(t, "secondary", name)
}

func TestFallbackChainStopsOnPermanent(t *testing.T) {
	ctx := context.Background()
	chain := NewFallbackChain(
		FallbackStrategy{
			Name:       "tiingo",
			CanExecute: func(ctx context.Context) bool { return true },
			Execute:    func(ctx context.Context) (any, error) { return nil, errs.New(errs.InvalidInput, "bad symbol") },
		},
		FallbackStrategy{
			Name:       "secondary",
			CanExecute: func(ctx context.Context) bool { return true },
			Execute:    func(ctx context.Context) (any, error) { return "secondary-data", nil },
		},
	)

	_, name, err := chain.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, "tiingo", name)
	assert.Equal(t, errs.InvalidInput, errs.KindOf(err))
}

func TestFallbackChainSkipsIneligibleStrategies(t *testing.T) {
	ctx := context.Background()
	chain := NewFallbackChain(
		FallbackStrategy{
			Name:       "news-api-missing-key",
			CanExecute: func(ctx context.Context) bool { return false },
			Execute:    func(ctx context.Context) (any, error) { return nil, errs.New(errs.Fatal, "unreachable") },
		},
		FallbackStrategy{
			Name:       "news-api-secondary",
			CanExecute: func(ctx context.Context) bool { return true },
			Execute:    func(ctx context.Context) (any, error) { return "news", nil },
		},
	)

	result, name, err := chain.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "news", result)
	assert.Equal(t, "news-api-secondary", name)
}

func TestFallbackChainAllIneligibleReturnsUpstreamUnavailable(t *testing.T) {
	ctx := context.Background()
	chain := NewFallbackChain(
		FallbackStrategy{
			Name:       "only",
			CanExecute: func(ctx context.Context) bool { return false },
			Execute:    func(ctx context.Context) (any, error) { return "never", nil },
		},
	)

	_, _, err := chain.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, errs.UpstreamUnavailable, errs.KindOf(err))
}
