// Package idgen produces process-unique identifiers for workflow nodes.
package idgen

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Generator hands out identifiers for newly created nodes.
// Implementations must never return the same value twice and must not fail.
type Generator interface {
	Next(hint string) string
}

// Clock returns the current time. Swapped in tests.
type Clock func() time.Time

// Counter combines a monotonic counter with a millisecond timestamp and the
// caller's hint, e.g. "action-m2x8k1q0-1f". Ids sort roughly by creation order
// and show which kind of node they belong to.
type Counter struct {
	n   atomic.Uint64
	now Clock
}

// New creates a Counter generator backed by the wall clock.
func New() *Counter {
	return &Counter{now: time.Now}
}

// NewWithClock creates a Counter generator with a custom clock.
func NewWithClock(now Clock) *Counter {
	if now == nil {
		now = time.Now
	}
	return &Counter{now: now}
}

// Next returns a fresh identifier.
func (c *Counter) Next(hint string) string {
	n := c.n.Add(1)
	ts := c.now().UnixMilli()
	return normalizeHint(hint) + "-" + strconv.FormatInt(ts, 36) + "-" + strconv.FormatUint(n, 36)
}

// Sequence is a deterministic generator ("action-1", "branch-2", ...).
// It is meant for tests and reproducible fixtures.
type Sequence struct {
	prefix string
	n      atomic.Uint64
}

// NewSequence creates a deterministic generator. The optional prefix is
// prepended to every id.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// Next returns the next id in the sequence.
func (s *Sequence) Next(hint string) string {
	n := s.n.Add(1)
	return s.prefix + normalizeHint(hint) + "-" + strconv.FormatUint(n, 10)
}

// Default is the process-wide generator.
var Default Generator = New()

// Next draws an id from Default.
func Next(hint string) string {
	return Default.Next(hint)
}

func normalizeHint(hint string) string {
	if hint == "" {
		return "node"
	}
	return hint
}
