// Package resolver implements the Cascading Orchestrator (C6): one
// operation per logical capability, each walking L1 → L1′ → L2 (per
// capability policy) → ordered providers, writing successes back
// through every tier it consulted (spec §4.6).
package resolver

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maverick-mcp/maverick-mcp-go/internal/cache"
	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/provider"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resilience"
	"github.com/maverick-mcp/maverick-mcp-go/internal/store"
)

// Config tunes the resolver's default cache lifetimes. Individual
// operations may override these for capability-specific policy (e.g. a
// zero SummaryTTL keeps summaries in L1 with no expiry).
type Config struct {
	BarsTTL        time.Duration
	RateTTL        time.Duration
	NewsTTL        time.Duration
	SummaryTTL     time.Duration
	TranscriptTTL  time.Duration
	NegativeTTL    time.Duration
	DefaultTTL     time.Duration
}

// DefaultConfig matches CACHE_TTL_SECONDS' documented default (§6) of
// 15 minutes for volatile facts. Transcript §9 Open Question: the L2
// row is permanent, but L1/L1′ mirror entries carry a 7-day TTL, not
// "permanent" (the two conflicting descriptions in the source are
// resolved this way and surfaced here as configuration).
func DefaultConfig() Config {
	return Config{
		BarsTTL:       15 * time.Minute,
		RateTTL:       1 * time.Hour,
		NewsTTL:       10 * time.Minute,
		SummaryTTL:    0, // derivatives never expire from L1 once the base transcript exists
		TranscriptTTL: 7 * 24 * time.Hour,
		NegativeTTL:   60 * time.Second, // E5: negative-caching TTL on total cascade failure
		DefaultTTL:    15 * time.Minute,
	}
}

// Resolver is the C6 orchestrator, holding references to every
// lower-numbered component it coordinates.
type Resolver struct {
	cache     *cache.Tier
	gw        store.Gateway
	breakers  *resilience.Registry
	dedup     *resilience.Dedup
	providers *provider.Registry
	logger    *slog.Logger
	cfg       Config
}

func New(tier *cache.Tier, gw store.Gateway, breakers *resilience.Registry, dedup *resilience.Dedup, providers *provider.Registry, logger *slog.Logger, cfg Config) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{cache: tier, gw: gw, breakers: breakers, dedup: dedup, providers: providers, logger: logger, cfg: cfg}
}

// getCached looks up key in the cache tier and unmarshals its payload
// into out. Returns false on miss or unmarshal failure (treated as a
// miss so a corrupt entry self-heals on next write).
func (r *Resolver) getCached(ctx context.Context, key string, out any) bool {
	entry, ok := r.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(entry.Payload, out); err != nil {
		r.logger.Warn("cache payload unmarshal failed, treating as miss", "key", key, "error", err)
		return false
	}
	return true
}

// setCached marshals value and writes it through both cache tiers with
// ttl (zero/negative means "does not expire").
func (r *Resolver) setCached(ctx context.Context, key string, value any, ttl time.Duration, sourceTag string) {
	payload, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("cache payload marshal failed, skipping write", "key", key, "error", err)
		return
	}
	r.cache.Set(ctx, key, cache.Entry{Payload: payload, InsertedAt: time.Now(), TTL: ttl, SourceTag: sourceTag})
}

// endpointKey names a breaker/log-correlation endpoint for one provider
// instance under one capability.
func endpointKey(cap provider.Capability, name string) string {
	return string(cap) + ":" + name
}

// newCorrelationID mints a per-cascade id (spec §7) so every attempt
// record and log line produced while one top-level resolver call walks
// its provider list can be tied back together.
func newCorrelationID() string {
	return uuid.NewString()
}

// logAttemptFailure logs one provider's failure within a cascade,
// tagged with corrID so every attempt in the same cascade correlates in
// logs even once the resolver has moved on to the next provider.
func (r *Resolver) logAttemptFailure(capability string, corrID string, a attempt) {
	r.logger.Warn("provider attempt failed", "capability", capability, "correlation_id", corrID, "provider", a.provider, "error", a.err)
}

// markNegative records a short-lived "every provider failed" marker so a
// storm of identical requests right after a total cascade failure (E5)
// doesn't re-walk every provider before the negative TTL elapses.
func (r *Resolver) markNegative(ctx context.Context, key string) {
	r.cache.Set(ctx, key+":neg", cache.Entry{Payload: []byte("1"), InsertedAt: time.Now(), TTL: r.cfg.NegativeTTL})
}

// negativelyCached reports whether key currently carries an unexpired
// negative marker from markNegative.
func (r *Resolver) negativelyCached(ctx context.Context, key string) bool {
	_, ok := r.cache.Get(ctx, key+":neg")
	return ok
}

// shouldTryNextProvider reports whether the cascade should continue to
// the next provider after err. Only a caller-side InvalidInput or a
// startup-fatal condition stops the cascade outright; every other kind
// (NotFound, Transient, QuotaExceeded, CircuitOpen, Permanent,
// UpstreamUnavailable) means "this provider could not answer it, try the
// next one" (spec §4.6: the resolver walks the whole ordered list before
// giving up).
func shouldTryNextProvider(err error) bool {
	switch errs.KindOf(err) {
	case errs.InvalidInput, errs.Fatal:
		return false
	default:
		return true
	}
}

// attempt records one provider's outcome for the final error-escalation
// decision (spec §4.6 Error escalation, §7 "attached to a per-capability
// attempt record").
type attempt struct {
	provider string
	err      error
}

// escalate turns a list of failed attempts into the resolver's single
// typed return error: NotFound if the last attempt was NotFound,
// UpstreamUnavailable otherwise. corrID ties the logged failure back to
// every per-attempt log line from the same cascade.
func (r *Resolver) escalate(attempts []attempt, capability, corrID string) error {
	if len(attempts) == 0 {
		return errs.Newf(errs.UpstreamUnavailable, "no provider configured for capability %s", capability)
	}
	last := attempts[len(attempts)-1]
	if errs.KindOf(last.err) == errs.NotFound {
		return last.err
	}
	r.logger.Warn("cascade exhausted all providers", "capability", capability, "correlation_id", corrID, "attempts", len(attempts), "last_provider", last.provider, "error", last.err)
	return errs.Newf(errs.UpstreamUnavailable, "all providers failed for capability %s (last: %s: %v)", capability, last.provider, last.err)
}
