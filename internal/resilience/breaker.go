// Package resilience provides the per-endpoint circuit breaking, retry,
// fallback chaining and single-flight deduplication used by the provider
// clients and cascading resolver (spec §4.4).
package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

// BreakerConfig tunes a single endpoint's circuit breaker (spec §4.4.1).
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before OPEN
	RecoveryTimeout  time.Duration // time spent OPEN before probing HALF_OPEN
	SuccessThreshold int           // consecutive HALF_OPEN successes before CLOSED
}

// DefaultBreakerConfig matches the spec's stated defaults: N=5, T=60s,
// M=3.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		SuccessThreshold: 3,
	}
}

// Registry holds one gobreaker instance per endpoint key, created lazily
// (spec §4.4.1: "a circuit breaker instance per external endpoint").
type Registry struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	logger   *slog.Logger
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewRegistry builds a breaker registry sharing cfg across all endpoints;
// there is no per-endpoint override.
func NewRegistry(cfg BreakerConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{cfg: cfg, logger: logger, breakers: make(map[string]*gobreaker.CircuitBreaker[any])}
}

func (r *Registry) breakerFor(key string) *gobreaker.CircuitBreaker[any] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[key]; ok {
		return b
	}

	settings := gobreaker.Settings{
		Name:        key,
		MaxRequests: uint32(r.cfg.SuccessThreshold),
		Interval:    0,
		Timeout:     r.cfg.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(r.cfg.FailureThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Info("circuit breaker state change", "endpoint", name, "from", from.String(), "to", to.String())
		},
	}
	b := gobreaker.NewCircuitBreaker[any](settings)
	r.breakers[key] = b
	return b
}

// State reports the current state of the breaker for key without forcing
// a creation side effect beyond the lazy default.
func (r *Registry) State(key string) gobreaker.State {
	return r.breakerFor(key).State()
}

// Execute runs fn through the named endpoint's breaker. A breaker that is
// OPEN short-circuits with errs.CircuitOpen without calling fn (spec §4.4.1
// invariant: OPEN rejects immediately).
func (r *Registry) Execute(ctx context.Context, endpoint string, fn func(ctx context.Context) (any, error)) (any, error) {
	b := r.breakerFor(endpoint)
	result, err := b.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, errs.New(errs.CircuitOpen, "circuit open for "+endpoint).WithHint("wait for recovery timeout or use fallback")
		}
		return nil, err
	}
	return result, nil
}
