package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resilience"
)

// Registry holds every provider instance grouped by capability, ordered
// by declared priority, with each provider's live circuit-breaker state
// reachable for health reporting (spec §3 ProviderDescriptor.health).
//
// Grounded on other_examples/07ca2e9a_sawpanic-cryptorun's
// ProviderRegistry interface (Register/Get/GetAll/GetHealthy), narrowed
// to this spec's capability-keyed shape rather than a single flat
// exchange-venue namespace.
type Registry struct {
	mu        sync.RWMutex
	breakers  *resilience.Registry
	providers map[Capability][]Descriptor
	instances map[string]any
}

// NewRegistry builds an empty registry sharing breaker state with the
// resilience layer.
func NewRegistry(breakers *resilience.Registry) *Registry {
	return &Registry{
		breakers:  breakers,
		providers: make(map[Capability][]Descriptor),
		instances: make(map[string]any),
	}
}

// Register adds a provider instance under a capability at a priority
// (lower priority value = tried first). instance must implement the
// capability interface matching cap; this is not enforced structurally
// here since Go has no existential capability bound across the fixed
// interface set, but callers (wiring code in cmd/maverick-mcp) pass
// concrete typed clients.
func (r *Registry) Register(cap Capability, name string, priority int, instance any) error {
	if name == "" {
		return errs.New(errs.InvalidInput, "provider name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.instances[endpointKey(cap, name)] = instance
	r.providers[cap] = append(r.providers[cap], Descriptor{Name: name, Capability: cap, Priority: priority})
	sort.SliceStable(r.providers[cap], func(i, j int) bool {
		return r.providers[cap][i].Priority < r.providers[cap][j].Priority
	})
	return nil
}

// Ordered returns the provider descriptors for a capability in priority
// order. It does not itself skip providers whose breaker is currently
// OPEN: the resolver's cascade calls each one through
// resilience.Registry.Execute, which fails fast with errs.CircuitOpen
// for an OPEN breaker without invoking the provider, and
// shouldTryNextProvider treats CircuitOpen the same as any other
// retryable-by-cascade error, so an OPEN endpoint is skipped in effect
// on the very next attempt.
func (r *Registry) Ordered(cap Capability) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, len(r.providers[cap]))
	copy(out, r.providers[cap])
	return out
}

// Instance returns the concrete client registered for (cap, name).
func (r *Registry) Instance(cap Capability, name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.instances[endpointKey(cap, name)]
	return v, ok
}

// BreakerState reports the current breaker state for a registered
// endpoint (spec §3 CircuitState), used for health/metrics reporting.
func (r *Registry) BreakerState(cap Capability, name string) gobreaker.State {
	return r.breakers.State(endpointKey(cap, name))
}

func endpointKey(cap Capability, name string) string {
	return fmt.Sprintf("%s:%s", cap, name)
}
