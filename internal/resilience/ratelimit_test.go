package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterNilNeverBlocks(t *testing.T) {
	var l *RateLimiter
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.NoError(t, l.Wait(ctx))
}

func TestNewRateLimiterNonPositiveRPSReturnsNil(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, 5))
	assert.Nil(t, NewRateLimiter(-1, 5))
}

func TestRateLimiterWaitsForBucketRefill(t *testing.T) {
	l := NewRateLimiter(10, 1) // 1 token every 100ms, burst of 1
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx)) // drains the initial token instantly

	start := time.Now()
	require.NoError(t, l.Wait(ctx)) // must wait roughly one refill interval
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiterRespectsContextDeadline(t *testing.T) {
	l := NewRateLimiter(1, 1) // 1 token every second, burst of 1
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx)) // drain the only token

	shortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Wait(shortCtx)
	assert.Error(t, err)
}
