package cache

import (
	"context"
	"log/slog"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTier(fr *fakeRedis) *Tier {
	l1p := newL1PrimeFromCommander(fr)
	return NewTier(NewL1(64), l1p, silentLogger())
}

func TestTierWriteThrough(t *testing.T) {
	fr := newFakeRedis()
	tier := newTestTier(fr)
	ctx := context.Background()

	entry := Entry{Payload: []byte("hello"), InsertedAt: time.Now(), TTL: time.Minute, SourceTag: "TIINGO"}
	tier.Set(ctx, "bars:range:AAPL:v1", entry)

	l1Entry, ok := tier.l1.Get("bars:range:AAPL:v1")
	require.True(t, ok)
	assert.Equal(t, entry.Payload, l1Entry.Payload)

	l1pEntry, ok, err := tier.l1p.Get(ctx, "bars:range:AAPL:v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Payload, l1pEntry.Payload)
}

func TestTierL1MissL1PrimeHitWarmsL1(t *testing.T) {
	fr := newFakeRedis()
	tier := newTestTier(fr)
	ctx := context.Background()

	entry := Entry{Payload: []byte("warm-me"), InsertedAt: time.Now(), TTL: time.Minute, SourceTag: "IR_WEBSITE"}
	require.NoError(t, tier.l1p.Set(ctx, "concall:transcript:X:Q1:2025:v1", entry))

	got, ok := tier.Get(ctx, "concall:transcript:X:Q1:2025:v1")
	require.True(t, ok)
	assert.Equal(t, entry.Payload, got.Payload)

	// L1 should now be warm.
	_, okNow := tier.l1.Get("concall:transcript:X:Q1:2025:v1")
	assert.True(t, okNow)
}

func TestTierDegradesWhenL1PrimeUnreachable(t *testing.T) {
	fr := newFakeRedis()
	fr.failNext = true
	tier := newTestTier(fr)
	ctx := context.Background()

	// L1' write fails; L1 must still hold the value.
	tier.Set(ctx, "k1", Entry{Payload: []byte("v1"), InsertedAt: time.Now(), TTL: time.Minute})

	_, ok := tier.l1.Get("k1")
	assert.True(t, ok, "L1 continues to serve even when L1' write fails")
	assert.True(t, tier.degraded.Load())
}

func TestTierL1OnlyWhenNoL1Prime(t *testing.T) {
	tier := NewTier(NewL1(64), nil, silentLogger())
	ctx := context.Background()

	tier.Set(ctx, "k1", Entry{Payload: []byte("v1"), InsertedAt: time.Now(), TTL: time.Minute})
	got, ok := tier.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got.Payload)

	h := tier.Health(ctx)
	assert.True(t, h.Available)
}

func TestTierDeleteRemovesFromBothTiers(t *testing.T) {
	fr := newFakeRedis()
	tier := newTestTier(fr)
	ctx := context.Background()

	tier.Set(ctx, "k1", Entry{Payload: []byte("v1"), InsertedAt: time.Now(), TTL: time.Minute})
	tier.Delete(ctx, "k1")

	_, ok := tier.Get(ctx, "k1")
	assert.False(t, ok)
}
