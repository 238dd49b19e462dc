package resilience

import (
	"golang.org/x/sync/singleflight"
)

// Dedup gates concurrent identical upstream calls so that N callers
// requesting the same cache-miss key in the same instant produce exactly
// one outbound provider call (spec §4.4.4 / invariant 3).
type Dedup struct {
	group singleflight.Group
}

// NewDedup builds an empty dedup gate.
func NewDedup() *Dedup {
	return &Dedup{}
}

// Do runs fn for key, collapsing concurrent callers onto a single
// execution. shared reports whether the caller's result came from a call
// made by a different goroutine.
func (d *Dedup) Do(key string, fn func() (any, error)) (any, bool, error) {
	v, err, shared := d.group.Do(key, fn)
	return v, shared, err
}

// Forget removes key from the in-flight set, used after a call completes
// with an error that should not be remembered for subsequent waiters.
func (d *Dedup) Forget(key string) {
	d.group.Forget(key)
}
