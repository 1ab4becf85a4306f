package budget

import (
	"sync"
	"time"
)

// UsageStats holds quota usage statistics for one key.
type UsageStats struct {
	TotalCalls      int       `json:"total_calls"`
	CallsThisHour   int       `json:"calls_this_hour"`
	DailyLimit      int       `json:"daily_limit"`
	RemainingCalls  int       `json:"remaining_calls"`
	UsagePercentage float64   `json:"usage_percentage"`
	NextResetAt     time.Time `json:"next_reset_at"`
}

type keyUsage struct {
	totalCalls    int
	callsThisHour int
	hourStartTime time.Time
}

// Tracker counts calls per key against a daily quota that resets at local
// midnight. A zero limit means unlimited; calls are still counted.
type Tracker struct {
	mu         sync.RWMutex
	usage      map[string]*keyUsage
	dailyLimit int
	resetTime  time.Time
	now        func() time.Time
}

// NewTracker creates a tracker with the given daily limit per key.
func NewTracker(dailyLimit int) *Tracker {
	return newTracker(dailyLimit, time.Now)
}

func newTracker(dailyLimit int, now func() time.Time) *Tracker {
	t := &Tracker{
		usage:      make(map[string]*keyUsage),
		dailyLimit: dailyLimit,
		now:        now,
	}
	t.resetTime = nextMidnight(now())
	return t
}

func nextMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}

// RecordCall records one call for key.
func (t *Tracker) RecordCall(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.After(t.resetTime) {
		t.resetUnsafe(now)
	}

	u, ok := t.usage[key]
	if !ok {
		u = &keyUsage{hourStartTime: now}
		t.usage[key] = u
	}
	if now.Sub(u.hourStartTime) >= time.Hour {
		u.callsThisHour = 0
		u.hourStartTime = now
	}

	u.totalCalls++
	u.callsThisHour++
}

// CanMakeCall reports whether key still has quota today.
func (t *Tracker) CanMakeCall(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dailyLimit <= 0 {
		return true
	}
	if now := t.now(); now.After(t.resetTime) {
		t.resetUnsafe(now)
	}
	u, ok := t.usage[key]
	return !ok || u.totalCalls < t.dailyLimit
}

// Usage returns usage statistics for key.
func (t *Tracker) Usage(key string) UsageStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.usageLocked(t.usage[key])
}

// Snapshot returns usage statistics for every key seen today.
func (t *Tracker) Snapshot() map[string]UsageStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]UsageStats, len(t.usage))
	for key, u := range t.usage {
		out[key] = t.usageLocked(u)
	}
	return out
}

func (t *Tracker) usageLocked(u *keyUsage) UsageStats {
	stats := UsageStats{
		DailyLimit:  t.dailyLimit,
		NextResetAt: t.resetTime,
	}
	if u != nil {
		stats.TotalCalls = u.totalCalls
		stats.CallsThisHour = u.callsThisHour
	}
	if t.dailyLimit > 0 {
		stats.RemainingCalls = max(t.dailyLimit-stats.TotalCalls, 0)
		stats.UsagePercentage = float64(stats.TotalCalls) / float64(t.dailyLimit) * 100
	}
	return stats
}

// Reset resets all usage counters.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetUnsafe(t.now())
}

func (t *Tracker) resetUnsafe(now time.Time) {
	t.usage = make(map[string]*keyUsage)
	t.resetTime = nextMidnight(now)
}
