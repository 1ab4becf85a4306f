// Package budget holds the process-wide outbound request gate and per-source
// call quotas.
package budget

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/tikwatch/internal/indexing/metrics"
)

// Limiter enforces a minimum interval between any two outbound attempts in
// the process. Waiters are served one at a time so grants never overlap.
type Limiter struct {
	interval time.Duration
	slot     chan struct{}
	now      func() time.Time

	mu        sync.RWMutex
	lastGrant time.Time
	grants    int64
}

// NewLimiter creates a limiter with the given minimum interval.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		slot:     make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Acquire blocks until at least the configured interval has passed since the
// previous grant, then records a new grant. It only fails if ctx ends first.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.slot }()

	l.mu.RLock()
	last := l.lastGrant
	l.mu.RUnlock()

	var wait time.Duration
	if !last.IsZero() {
		wait = last.Add(l.interval).Sub(l.now())
	}

	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	} else {
		wait = 0
	}
	metrics.RateLimitWait.Observe(wait.Seconds())

	l.mu.Lock()
	l.lastGrant = l.now()
	l.grants++
	l.mu.Unlock()

	return nil
}

// LastGrant returns the time of the most recent grant.
func (l *Limiter) LastGrant() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastGrant
}

// Grants returns the number of grants issued so far.
func (l *Limiter) Grants() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.grants
}

// Interval returns the configured minimum interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
