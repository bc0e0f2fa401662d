// Package ratelimit guards the outbound scrape: a double-fired external
// scheduler must not hammer the rate source.
package ratelimit

import (
	"sync"
	"time"
)

// IntervalGuard allows at most one event per key per interval.
type IntervalGuard struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

// New creates a guard with the given minimum interval. A zero interval
// allows everything.
func New(interval time.Duration) *IntervalGuard {
	return &IntervalGuard{interval: interval, last: make(map[string]time.Time), now: time.Now}
}

// SetClock injects a clock for tests.
func (g *IntervalGuard) SetClock(now func() time.Time) { g.now = now }

// Allow reports whether an event for key may proceed and, if so,
// consumes the slot for the current interval.
func (g *IntervalGuard) Allow(key string) bool {
	if g.interval <= 0 {
		return true
	}
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.last[key]; ok && now.Sub(t) < g.interval {
		return false
	}
	g.last[key] = now
	return true
}
