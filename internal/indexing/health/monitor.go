package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/indexing/poller"
	"github.com/vietddude/tikwatch/internal/infra/rpc/budget"
	"github.com/vietddude/tikwatch/internal/infra/rpc/provider"
)

// RouteReporter exposes per-route transport statistics.
type RouteReporter interface {
	Stats() map[string]provider.MonitorStats
}

// ModeReporter exposes the controller state.
type ModeReporter interface {
	Mode() domain.Mode
	Source() domain.DataSource
	LastAttempts() []domain.FailureRecord
}

// QuotaReporter exposes a source's call usage.
type QuotaReporter interface {
	Usage() budget.UsageStats
}

// LiveReporter exposes the poller state.
type LiveReporter interface {
	Status() poller.Status
	Latest() (domain.LiveStatsRecord, bool)
}

// Config lists the components a Monitor reads from. Live may be nil when no
// poller runs.
type Config struct {
	Controller   ModeReporter
	Routes       []RouteReporter
	Quotas       map[string]QuotaReporter
	Live         LiveReporter
	Sources      []string
	CacheBackend string
}

// Monitor aggregates health status from the running components.
type Monitor struct {
	mu  sync.RWMutex
	cfg Config
}

// NewMonitor creates a new health monitor.
func NewMonitor(cfg Config) *Monitor {
	return &Monitor{cfg: cfg}
}

// SetLive attaches a poller after construction.
func (m *Monitor) SetLive(live LiveReporter) {
	m.mu.Lock()
	m.cfg.Live = live
	m.mu.Unlock()
}

// CheckHealth builds a report from the current component state.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := Report{
		SystemStatus: StatusHealthy,
		Mode:         m.cfg.Controller.Mode(),
		Source:       m.cfg.Controller.Source(),
		Sources:      m.cfg.Sources,
		CacheBackend: m.cfg.CacheBackend,
		Routes:       make(map[string]provider.MonitorStats),
		LastAttempts: m.cfg.Controller.LastAttempts(),
	}

	if len(m.cfg.Quotas) > 0 {
		report.Quotas = make(map[string]budget.UsageStats, len(m.cfg.Quotas))
		for name, q := range m.cfg.Quotas {
			usage := q.Usage()
			report.Quotas[name] = usage
			if usage.DailyLimit > 0 && usage.RemainingCalls == 0 {
				report.SystemStatus = StatusDegraded
			}
		}
	}

	for _, r := range m.cfg.Routes {
		for name, st := range r.Stats() {
			report.Routes[name] = merge(report.Routes[name], st)
			switch st.Status {
			case provider.StatusBlocked, provider.StatusThrottled, provider.StatusDegraded:
				report.SystemStatus = StatusDegraded
			}
		}
	}

	if m.cfg.Live != nil {
		st := m.cfg.Live.Status()
		report.Poller = &st
		switch {
		case st.Halted != "":
			report.SystemStatus = StatusCritical
		case st.ConsecutiveErrors > 0:
			report.SystemStatus = StatusDegraded
		}
	}

	return report
}

// Stats returns the latest live snapshot and controller state.
func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := Stats{
		Mode:   m.cfg.Controller.Mode(),
		Source: m.cfg.Controller.Source(),
	}
	if m.cfg.Live == nil {
		return out
	}
	st := m.cfg.Live.Status()
	out.User = st.User
	out.Poller = &st
	if rec, ok := m.cfg.Live.Latest(); ok {
		out.Live = &rec
	}
	return out
}

// merge combines stats for a route shared by several transports. The worse
// status wins.
func merge(a, b provider.MonitorStats) provider.MonitorStats {
	if a.Status == "" {
		return b
	}
	total := a.Successes + b.Successes
	if total > 0 {
		a.AverageLatency = (a.AverageLatency*time.Duration(a.Successes) + b.AverageLatency*time.Duration(b.Successes)) / time.Duration(total)
	}
	a.Successes = total
	a.Failures += b.Failures
	a.ThrottleCount429 += b.ThrottleCount429
	a.ThrottleCount403 += b.ThrottleCount403
	if b.LastThrottleAt.After(a.LastThrottleAt) {
		a.LastThrottleAt = b.LastThrottleAt
	}
	if rank(b.Status) > rank(a.Status) {
		a.Status = b.Status
	}
	return a
}

func rank(s provider.RouteStatus) int {
	switch s {
	case provider.StatusBlocked:
		return 3
	case provider.StatusThrottled:
		return 2
	case provider.StatusDegraded:
		return 1
	}
	return 0
}
