// Package health provides system health monitoring and status reporting.
package health

import (
	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/indexing/poller"
	"github.com/vietddude/tikwatch/internal/infra/rpc/budget"
	"github.com/vietddude/tikwatch/internal/infra/rpc/provider"
)

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full system health report.
type Report struct {
	SystemStatus SystemStatus                     `json:"system_status"`
	Mode         domain.Mode                      `json:"mode"`
	Source       domain.DataSource                `json:"source"`
	Sources      []string                         `json:"sources"`
	CacheBackend string                           `json:"cache_backend"`
	Routes       map[string]provider.MonitorStats `json:"routes"`
	Quotas       map[string]budget.UsageStats     `json:"quotas,omitempty"`
	LastAttempts []domain.FailureRecord           `json:"last_attempts"`
	Poller       *poller.Status                   `json:"poller,omitempty"`
}

// Stats is the live snapshot served on /stats.
type Stats struct {
	User   string                  `json:"user"`
	Mode   domain.Mode             `json:"mode"`
	Source domain.DataSource       `json:"source"`
	Live   *domain.LiveStatsRecord `json:"live"`
	Poller *poller.Status          `json:"poller,omitempty"`
}
