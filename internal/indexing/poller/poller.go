// Package poller drives recurring live-stats resolutions for one user.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/core/failure"
	"github.com/vietddude/tikwatch/internal/indexing/metrics"
)

const maxRecentAlerts = 10

// LiveResolver is the controller surface the poller needs.
type LiveResolver interface {
	ResolveLiveStats(ctx context.Context, handle string) (domain.LiveStatsRecord, error)
	Source() domain.DataSource
}

// Config holds poller configuration.
type Config struct {
	User            string
	Interval        time.Duration
	ErrorRetryDelay time.Duration
	MaxErrorRetries int
	MaxComments     int
	Alerts          Thresholds
}

// Status is a snapshot of the poller for status surfaces.
type Status struct {
	User              string            `json:"user"`
	Running           bool              `json:"running"`
	Ticks             int64             `json:"ticks"`
	Skipped           int64             `json:"skipped"`
	ConsecutiveErrors int               `json:"consecutive_errors"`
	LastError         string            `json:"last_error,omitempty"`
	LastTick          time.Time         `json:"last_tick"`
	Source            domain.DataSource `json:"source,omitempty"`
	Halted            string            `json:"halted,omitempty"`
	Alerts            []Alert           `json:"alerts"`
}

// Poller resolves live stats on a fixed interval. A tick that fires while the
// previous one is still running is skipped. The data source is read once per
// tick, so a source switch applies from the next tick.
type Poller struct {
	cfg      Config
	resolver LiveResolver
	now      func() time.Time

	running  atomic.Bool
	busy     atomic.Bool
	ticks    atomic.Int64
	skipped  atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	latest   *domain.LiveStatsRecord
	source   domain.DataSource
	seenLive bool
	peak     int64
	system   []domain.CommentRecord
	errCount int
	lastErr  string
	lastTick time.Time
	halted   string
	alerts   []Alert
}

// New creates a poller.
func New(cfg Config, resolver LiveResolver) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 8 * time.Second
	}
	if cfg.ErrorRetryDelay <= 0 {
		cfg.ErrorRetryDelay = 5 * time.Second
	}
	if cfg.MaxErrorRetries <= 0 {
		cfg.MaxErrorRetries = 5
	}
	if cfg.MaxComments <= 0 {
		cfg.MaxComments = domain.DefaultMaxComments
	}
	return &Poller{
		cfg:      cfg,
		resolver: resolver,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Start runs the polling loop until ctx is done, Stop is called, or the
// error policy halts it. The first tick fires immediately.
func (p *Poller) Start(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("poller already running")
	}
	defer p.running.Store(false)

	slog.Info("Starting live poller", "user", p.cfg.User, "interval", p.cfg.Interval)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.fire(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.stop:
			return nil
		case <-ticker.C:
			p.fire(ctx)
		}
	}
}

// Stop ends the polling loop.
func (p *Poller) Stop() error {
	p.stopOnce.Do(func() { close(p.stop) })
	return nil
}

func (p *Poller) stopped() bool {
	select {
	case <-p.stop:
		return true
	default:
		return false
	}
}

// fire starts a tick in the background unless one is still outstanding.
func (p *Poller) fire(ctx context.Context) {
	if !p.busy.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		metrics.PollTicksTotal.WithLabelValues("skipped").Inc()
		slog.Debug("Skipping live tick, previous tick still running", "user", p.cfg.User)
		return
	}
	go func() {
		defer p.busy.Store(false)
		p.Tick(ctx)
	}()
}

// Tick performs one resolution and applies the error policy. It reports
// whether the resolution succeeded.
func (p *Poller) Tick(ctx context.Context) bool {
	if p.stopped() || ctx.Err() != nil {
		return false
	}
	p.ticks.Add(1)
	src := p.resolver.Source()

	rec, err := p.resolver.ResolveLiveStats(ctx, p.cfg.User)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastTick = p.now()

	if err != nil {
		p.onError(ctx, err)
		return false
	}

	p.errCount = 0
	p.lastErr = ""
	p.observe(rec, src)
	metrics.PollTicksTotal.WithLabelValues("ok").Inc()
	return true
}

// onError is called with p.mu held.
func (p *Poller) onError(ctx context.Context, err error) {
	p.lastErr = err.Error()

	var resolved *failure.ResolvedError
	if errors.As(err, &resolved) && resolved.NotLive {
		metrics.PollTicksTotal.WithLabelValues("not_live").Inc()
		p.halt("user is not live")
		slog.Warn("User is not live, stopping poller", "user", p.cfg.User)
		return
	}

	metrics.PollTicksTotal.WithLabelValues("error").Inc()
	cat := failure.Classify(err)
	if !failure.Retryable(cat) {
		p.halt(string(cat))
		slog.Error("Live polling stopped on non-retryable failure",
			"user", p.cfg.User,
			"category", cat,
			"error", err,
		)
		return
	}

	p.errCount++
	if p.errCount > p.cfg.MaxErrorRetries {
		p.halt(fmt.Sprintf("%d consecutive failures", p.errCount))
		slog.Error("Live polling stopped after repeated failures",
			"user", p.cfg.User,
			"failures", p.errCount,
			"error", err,
		)
		return
	}

	slog.Warn("Live tick failed, retrying",
		"user", p.cfg.User,
		"category", cat,
		"attempt", p.errCount,
		"delay", p.cfg.ErrorRetryDelay,
	)
	time.AfterFunc(p.cfg.ErrorRetryDelay, func() { p.fire(ctx) })
}

func (p *Poller) halt(reason string) {
	p.halted = reason
	p.Stop()
}

// observe is called with p.mu held.
func (p *Poller) observe(rec domain.LiveStatsRecord, src domain.DataSource) {
	now := p.now()
	if !p.seenLive && rec.IsLive {
		p.seenLive = true
		p.inject(fmt.Sprintf("Connected to @%s live", p.cfg.User), now)
	}
	if p.source != "" && src != p.source {
		p.inject(fmt.Sprintf("Switched to %s data", src), now)
	}
	p.source = src

	if p.latest != nil {
		var alerts []Alert
		alerts, p.peak = DetectAlerts(*p.latest, rec, p.peak, p.cfg.Alerts)
		for _, a := range alerts {
			slog.Info("Live alert", "user", p.cfg.User, "kind", a.Kind, "message", a.Message)
		}
		p.alerts = append(p.alerts, alerts...)
		if len(p.alerts) > maxRecentAlerts {
			p.alerts = p.alerts[len(p.alerts)-maxRecentAlerts:]
		}
	} else {
		p.peak = rec.Viewers
	}

	merged := make([]domain.CommentRecord, 0, len(rec.Comments)+len(p.system))
	merged = append(merged, rec.Comments...)
	merged = append(merged, p.system...)
	rec.Comments = domain.BoundComments(merged, p.cfg.MaxComments)
	p.latest = &rec

	metrics.LiveViewers.WithLabelValues(p.cfg.User, string(rec.Provenance)).Set(float64(rec.Viewers))
	metrics.LiveLikes.WithLabelValues(p.cfg.User, string(rec.Provenance)).Set(float64(rec.Likes))
}

func (p *Poller) inject(text string, at time.Time) {
	c := domain.CommentRecord{
		ID:        uuid.NewString(),
		Author:    "system",
		Text:      text,
		Timestamp: at,
		IsSystem:  true,
	}
	p.system = domain.BoundComments(append(p.system, c), p.cfg.MaxComments)
}

// Latest returns the most recent successful snapshot.
func (p *Poller) Latest() (domain.LiveStatsRecord, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return domain.LiveStatsRecord{}, false
	}
	return *p.latest, true
}

// Status returns the poller state.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	alerts := make([]Alert, len(p.alerts))
	copy(alerts, p.alerts)
	return Status{
		User:              p.cfg.User,
		Running:           p.running.Load() && !p.stopped(),
		Ticks:             p.ticks.Load(),
		Skipped:           p.skipped.Load(),
		ConsecutiveErrors: p.errCount,
		LastError:         p.lastErr,
		LastTick:          p.lastTick,
		Source:            p.source,
		Halted:            p.halted,
		Alerts:            alerts,
	}
}
