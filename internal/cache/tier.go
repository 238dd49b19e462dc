package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// warmFraction is the portion of L1''s remaining TTL used to seed L1 on
// an L1' hit (spec §4.2: "never longer than L1' remaining").
const warmFraction = 0.5

// Tier is the uniform get/set/delete/scan surface over L1 (in-process)
// and L1' (shared KV), implementing the read/write path of spec §4.2.
type Tier struct {
	l1       *L1
	l1p      *L1Prime
	logger   *slog.Logger
	degraded atomic.Bool
}

// NewTier builds a Tier. l1p may be nil, in which case the tier runs
// L1-only (e.g. REDIS_URL unset).
func NewTier(l1 *L1, l1p *L1Prime, logger *slog.Logger) *Tier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tier{l1: l1, l1p: l1p, logger: logger}
}

// Get implements the read path: L1, then L1' with L1 warming on hit.
func (t *Tier) Get(ctx context.Context, key string) (Entry, bool) {
	if entry, ok := t.l1.Get(key); ok {
		return entry, true
	}

	if t.l1p == nil {
		return Entry{}, false
	}

	entry, ok, err := t.l1p.Get(ctx, key)
	if err != nil {
		t.logger.Warn("l1prime get failed, degrading to L1-only", "key", key, "error", err)
		t.degraded.Store(true)
		return Entry{}, false
	}
	t.degraded.Store(false)
	if !ok {
		return Entry{}, false
	}

	t.l1.Set(key, warmedCopy(entry))
	return entry, true
}

// warmedCopy returns a copy of entry whose TTL is capped at warmFraction
// of its remaining lifetime, so L1 never outlives L1' for the same key.
func warmedCopy(entry Entry) Entry {
	remaining := entry.Remaining(time.Now())
	if remaining <= 0 {
		return entry
	}
	cp := entry
	cp.TTL = time.Duration(float64(remaining) * warmFraction)
	cp.InsertedAt = time.Now()
	return cp
}

// Set writes through to both tiers. An L1' write failure is logged and
// swallowed (degraded mode); L1 still reflects the write (spec §4.2
// Tiering policy).
func (t *Tier) Set(ctx context.Context, key string, entry Entry) {
	t.l1.Set(key, entry)

	if t.l1p == nil {
		return
	}
	if err := t.l1p.Set(ctx, key, entry); err != nil {
		t.logger.Warn("l1prime set failed, write-through degraded", "key", key, "error", err)
		t.degraded.Store(true)
		return
	}
	t.degraded.Store(false)
}

// Delete removes key from both tiers.
func (t *Tier) Delete(ctx context.Context, key string) {
	t.l1.Delete(key)
	if t.l1p != nil {
		if err := t.l1p.Delete(ctx, key); err != nil {
			t.logger.Warn("l1prime delete failed", "key", key, "error", err)
		}
	}
}

// Scan returns the union of matching keys visible in L1 and L1'.
func (t *Tier) Scan(ctx context.Context, prefix string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, k := range t.l1.Scan(prefix) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	if t.l1p != nil {
		if keys, err := t.l1p.Scan(ctx, prefix); err == nil {
			for _, k := range keys {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					out = append(out, k)
				}
			}
		}
	}
	return out
}

// Health reports the tier's live status. L1 is always available; L1'
// availability reflects the last observed Ping/operation outcome.
func (t *Tier) Health(ctx context.Context) Health {
	if t.l1p == nil {
		return Health{Available: true, Detail: "L1-only (no L1' configured)"}
	}
	h := t.l1p.Health(ctx)
	h.Degraded = t.degraded.Load()
	return h
}
