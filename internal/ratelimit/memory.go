package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowCounter struct {
	count       int
	windowStart time.Time
}

// MemoryLimiter is a per-tenant fixed-window counter held in process memory.
// Correct for a single gateway instance only; multi-instance deployments use
// the Redis-backed limiter instead.
type MemoryLimiter struct {
	mu       sync.Mutex
	limit    int
	counters map[string]*windowCounter
	now      func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter allowing `limit` requests per
// tenant per window.
func NewMemoryLimiter(limit int) *MemoryLimiter {
	return &MemoryLimiter{
		limit:    limit,
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

// WithClock overrides the time source for tests.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

// Allow counts one request against the tenant's current window.
func (l *MemoryLimiter) Allow(_ context.Context, tenantID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.now()
	counter, ok := l.counters[tenantID]
	if !ok || current.Sub(counter.windowStart) >= Window {
		l.counters[tenantID] = &windowCounter{count: 1, windowStart: current}
		return true, nil
	}

	if counter.count >= l.limit {
		return false, nil
	}
	counter.count++
	return true, nil
}
