package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := Newf(NotFound, "transcript missing for %s", "RELIANCE.NS")
	require.True(t, errors.Is(err, &Error{Kind: NotFound}))
	require.False(t, errors.Is(err, &Error{Kind: Transient}))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := Wrap(Transient, "tiingo", cause)
	assert.Equal(t, cause, errors.Unwrap(wrapped))
	assert.Equal(t, Transient, KindOf(wrapped))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(Transient, "boom")))
	assert.True(t, IsRetryable(New(QuotaExceeded, "rate limited")))
	assert.False(t, IsRetryable(New(NotFound, "absent")))
	assert.False(t, IsRetryable(New(InvalidInput, "bad quarter")))
	assert.False(t, IsRetryable(New(CircuitOpen, "breaker open")))
}

func TestCountsAsBreakerFailure(t *testing.T) {
	assert.True(t, CountsAsBreakerFailure(New(Transient, "boom")))
	assert.True(t, CountsAsBreakerFailure(New(QuotaExceeded, "boom")))
	assert.False(t, CountsAsBreakerFailure(New(NotFound, "absent")))
	assert.False(t, CountsAsBreakerFailure(New(CircuitOpen, "open")))
	assert.False(t, CountsAsBreakerFailure(New(Permanent, "bad parse")))
}

func TestWithHintAndRetryAfterAreImmutable(t *testing.T) {
	base := New(NotFound, "no transcript yet")
	hinted := base.WithHint("likely available 3 days after earnings call")
	assert.Empty(t, base.Hint)
	assert.NotEmpty(t, hinted.Hint)

	quota := New(QuotaExceeded, "rate limited")
	withRetry := quota.WithRetryAfter(30)
	assert.Zero(t, quota.RetryAfter)
	assert.Equal(t, 30, withRetry.RetryAfter)
}
