// Package errs defines the typed error taxonomy shared by every component
// of the resolver, resilience, and store layers.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for retry, circuit-breaker, and escalation
// decisions. Exactly one Kind applies to any given error.
type Kind string

const (
	// InvalidInput is a caller error. Never retried, never counted
	// against a circuit breaker.
	InvalidInput Kind = "invalid_input"

	// NotFound means the fact genuinely does not exist upstream (e.g. no
	// transcript published yet). Not counted as a provider fault, but the
	// resolver still falls through to the next provider.
	NotFound Kind = "not_found"

	// Transient is retryable and counted against the circuit breaker.
	Transient Kind = "transient"

	// QuotaExceeded is retried per policy (honoring any server-indicated
	// delay) then treated as Transient for breaker counting, but logged
	// distinctly.
	QuotaExceeded Kind = "quota_exceeded"

	// CircuitOpen is a fail-fast response from a breaker. Not counted as
	// a fresh provider fault.
	CircuitOpen Kind = "circuit_open"

	// UpstreamUnavailable means every provider for a capability failed.
	UpstreamUnavailable Kind = "upstream_unavailable"

	// Partial marks a non-fatal response: part of the answer succeeded,
	// part did not.
	Partial Kind = "partial"

	// Fatal is a configuration or schema error. Aborts startup.
	Fatal Kind = "fatal"

	// Permanent means the provider will never succeed for these inputs
	// (e.g. a parse that failed content validation). Not retried; the
	// caller moves to the next provider.
	Permanent Kind = "permanent"
)

// Error is the single typed error value returned across component
// boundaries. Messages are stable and human-readable, suitable for direct
// display to the assistant layer (spec §7).
type Error struct {
	Kind       Kind
	Provider   string // empty if not provider-attributable
	Message    string
	RetryAfter int // seconds; only meaningful for QuotaExceeded
	Hint       string // e.g. likely availability window for NotFound
	Cause      error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match on Kind alone via a zero-value sentinel, e.g.
// errors.Is(err, &Error{Kind: NotFound}).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind and provider name to an underlying error.
func Wrap(kind Kind, provider string, cause error) *Error {
	return &Error{Kind: kind, Provider: provider, Message: cause.Error(), Cause: cause}
}

// WithHint returns a copy of e with Hint set.
func (e *Error) WithHint(hint string) *Error {
	cp := *e
	cp.Hint = hint
	return &cp
}

// WithRetryAfter returns a copy of e with RetryAfter set.
func (e *Error) WithRetryAfter(seconds int) *Error {
	cp := *e
	cp.RetryAfter = seconds
	return &cp
}

// KindOf extracts the Kind from err, defaulting to Transient for unknown
// error types so that callers fail safe (retry) rather than fail silent.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Transient
}

// IsRetryable reports whether err should be retried by the resilience
// layer's retry policy (§4.4.2). QuotaExceeded is retryable at the retry
// layer; breaker accounting for it is handled separately.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case Transient, QuotaExceeded:
		return true
	default:
		return false
	}
}

// CountsAsBreakerFailure reports whether err should increment a circuit
// breaker's failure counter (§4.4.1).
func CountsAsBreakerFailure(err error) bool {
	switch KindOf(err) {
	case Transient, QuotaExceeded:
		return true
	default:
		return false
	}
}
