package provider

import (
	"sync"
	"time"
)

// RouteStatus represents the observed health of a route.
type RouteStatus string

const (
	StatusHealthy   RouteStatus = "healthy"   // Route is working normally
	StatusDegraded  RouteStatus = "degraded"  // Route is slow or failing often
	StatusThrottled RouteStatus = "throttled" // Route is rate limiting
	StatusBlocked   RouteStatus = "blocked"   // Route has blocked this client
)

// MonitorStats holds monitoring statistics for a route.
type MonitorStats struct {
	Status           RouteStatus   `json:"status"`
	AverageLatency   time.Duration `json:"average_latency"`
	Successes        int           `json:"successes"`
	Failures         int           `json:"failures"`
	ThrottleCount429 int           `json:"throttle_429"`
	ThrottleCount403 int           `json:"throttle_403"`
	LastThrottleAt   time.Time     `json:"last_throttle_at,omitempty"`
}

// RouteMonitor tracks one route's latency and throttling. It is observational
// only; proxy rotation never consults it.
type RouteMonitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	successes          int
	failures           int
	status429Count     int
	status403Count     int
	lastThrottleTime   time.Time
	retryAfterDuration time.Duration

	slowResponseThreshold time.Duration
	degradedThreshold     float64
}

// NewRouteMonitor creates a new monitor with default settings.
func NewRouteMonitor() *RouteMonitor {
	return &RouteMonitor{
		recentLatencies:       make([]time.Duration, 0, 50),
		maxLatencyWindow:      50,
		slowResponseThreshold: 5 * time.Second,
		degradedThreshold:     0.5,
	}
}

// RecordRequest records a successful request with its latency.
func (m *RouteMonitor) RecordRequest(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.successes++
	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.maxLatencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}
}

// RecordFailure records a failed request that was not a throttle.
func (m *RouteMonitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

// RecordThrottle records a rate limiting or blocking response.
func (m *RouteMonitor) RecordThrottle(statusCode int, retryAfter string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures++
	m.lastThrottleTime = time.Now()

	switch statusCode {
	case 429:
		m.status429Count++
		m.retryAfterDuration = time.Minute
		if d, err := time.ParseDuration(retryAfter + "s"); err == nil && d > 0 {
			m.retryAfterDuration = d
		}
	case 403:
		m.status403Count++
		m.retryAfterDuration = 10 * time.Minute // Longer for IP block
	}
}

// CheckStatus returns the current status of the route.
func (m *RouteMonitor) CheckStatus() RouteStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *RouteMonitor) statusLocked() RouteStatus {
	recent := time.Since(m.lastThrottleTime) < m.retryAfterDuration

	if m.status403Count > 0 && recent {
		return StatusBlocked
	}
	if m.status429Count > 0 && recent {
		return StatusThrottled
	}

	total := m.successes + m.failures
	if total >= 4 && float64(m.failures)/float64(total) > m.degradedThreshold {
		return StatusDegraded
	}
	if avg := m.averageLocked(); len(m.recentLatencies) >= 5 && avg > m.slowResponseThreshold {
		return StatusDegraded
	}

	return StatusHealthy
}

func (m *RouteMonitor) averageLocked() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, lat := range m.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(m.recentLatencies))
}

// GetStats returns current monitoring statistics.
func (m *RouteMonitor) GetStats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MonitorStats{
		Status:           m.statusLocked(),
		AverageLatency:   m.averageLocked(),
		Successes:        m.successes,
		Failures:         m.failures,
		ThrottleCount429: m.status429Count,
		ThrottleCount403: m.status403Count,
		LastThrottleAt:   m.lastThrottleTime,
	}
}
