package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/core/failure"
	"github.com/vietddude/tikwatch/internal/indexing/metrics"
	"github.com/vietddude/tikwatch/internal/indexing/resolver"
)

var (
	ErrSwitchUnsupported = errors.New("source switching is only available in hybrid mode")
	ErrNothingToRetry    = errors.New("no previous resolution to retry")
)

// Resolver is the real-data chain the controller delegates to.
type Resolver interface {
	ResolveProfile(ctx context.Context, handle string) (domain.ProfileRecord, error)
	ResolveLiveStats(ctx context.Context, handle string) (domain.LiveStatsRecord, error)
	LastAttempts() []domain.FailureRecord
}

// Synthesizer produces records without touching the network.
type Synthesizer interface {
	Profile(handle string, prov domain.Provenance) domain.ProfileRecord
	LiveStats(handle string, prov domain.Provenance, maxComments int) domain.LiveStatsRecord
}

// Outcome is the result of a replayed request.
type Outcome struct {
	Kind    domain.RequestKind      `json:"kind"`
	Subject string                  `json:"subject"`
	Profile *domain.ProfileRecord   `json:"profile,omitempty"`
	Live    *domain.LiveStatsRecord `json:"live,omitempty"`
}

// State is a point-in-time view of the controller.
type State struct {
	Mode         domain.Mode            `json:"mode"`
	Source       domain.DataSource      `json:"source"`
	LastKind     domain.RequestKind     `json:"last_kind,omitempty"`
	LastSubject  string                 `json:"last_subject,omitempty"`
	LastAttempts []domain.FailureRecord `json:"last_attempts"`
	LastError    *failure.ResolvedError `json:"last_error,omitempty"`
}

type request struct {
	kind    domain.RequestKind
	subject string
}

// Controller applies the configured mode on top of the resolver.
//
// The mode is fixed at construction. Only hybrid mode has a mutable data
// source, changed through SwitchSource.
type Controller struct {
	mode        domain.Mode
	resolver    Resolver
	synth       Synthesizer
	maxComments int

	mu      sync.RWMutex
	source  domain.DataSource
	last    *request
	lastErr *failure.ResolvedError
}

// NewController creates a controller. Hybrid mode starts on real data.
func NewController(mode domain.Mode, resolver Resolver, synth Synthesizer, maxComments int) *Controller {
	src := domain.SourceReal
	if mode == domain.ModeAlternative {
		src = domain.SourceSynthetic
	}
	if maxComments <= 0 {
		maxComments = domain.DefaultMaxComments
	}
	return &Controller{
		mode:        mode,
		resolver:    resolver,
		synth:       synth,
		maxComments: maxComments,
		source:      src,
	}
}

// ResolveProfile resolves a profile under the controller's mode.
func (c *Controller) ResolveProfile(ctx context.Context, handle string) (domain.ProfileRecord, error) {
	handle = resolver.CleanHandle(handle)
	c.remember(domain.KindProfile, handle)
	src := c.Source()

	if c.mode == domain.ModeAlternative || src == domain.SourceSynthetic {
		c.count(domain.KindProfile, "synthetic")
		return c.synth.Profile(handle, domain.ProvenanceSynthetic), nil
	}

	rec, err := c.resolver.ResolveProfile(ctx, handle)
	if err == nil {
		c.setLastErr(nil)
		c.count(domain.KindProfile, "real")
		return rec, nil
	}
	if !c.absorb(domain.KindProfile, handle, err) {
		return domain.ProfileRecord{}, err
	}
	return c.synth.Profile(handle, domain.ProvenanceFallback), nil
}

// ResolveLiveStats resolves a live snapshot under the controller's mode.
func (c *Controller) ResolveLiveStats(ctx context.Context, handle string) (domain.LiveStatsRecord, error) {
	handle = resolver.CleanHandle(handle)
	c.remember(domain.KindLiveStats, handle)
	src := c.Source()

	if c.mode == domain.ModeAlternative || src == domain.SourceSynthetic {
		c.count(domain.KindLiveStats, "synthetic")
		return c.synth.LiveStats(handle, domain.ProvenanceSynthetic, c.maxComments), nil
	}

	rec, err := c.resolver.ResolveLiveStats(ctx, handle)
	if err == nil {
		c.setLastErr(nil)
		c.count(domain.KindLiveStats, "real")
		return rec, nil
	}
	if !c.absorb(domain.KindLiveStats, handle, err) {
		return domain.LiveStatsRecord{}, err
	}
	return c.synth.LiveStats(handle, domain.ProvenanceFallback, c.maxComments), nil
}

// absorb records a failed real resolution and reports whether a fallback
// record should replace it. Strict mode never substitutes.
func (c *Controller) absorb(kind domain.RequestKind, handle string, err error) bool {
	var resolved *failure.ResolvedError
	if errors.As(err, &resolved) {
		c.setLastErr(resolved)
	}

	if c.mode == domain.ModeStrict || resolved == nil {
		c.count(kind, "error")
		slog.Error("Resolution failed",
			"user", handle,
			"kind", kind,
			"mode", c.mode,
			"error", err,
		)
		return false
	}

	c.count(kind, "fallback")
	slog.Warn("Real sources exhausted, falling back to synthetic data",
		"user", handle,
		"kind", kind,
		"id", resolved.ID,
		"category", resolved.Category,
		"attempts", len(resolved.Attempts),
	)
	return true
}

// SwitchSource changes the hybrid data source and re-resolves the last
// request on the new source. A switch to real data that ends in a fallback
// reverts the source to synthetic.
func (c *Controller) SwitchSource(ctx context.Context, to domain.DataSource) (Outcome, error) {
	if c.mode != domain.ModeHybrid {
		return Outcome{}, ErrSwitchUnsupported
	}
	if to != domain.SourceReal && to != domain.SourceSynthetic {
		return Outcome{}, fmt.Errorf("unknown data source %q", to)
	}

	c.mu.Lock()
	from := c.source
	c.source = to
	last := c.last
	c.mu.Unlock()

	slog.Info("Switching data source", "from", from, "to", to)
	if last == nil {
		return Outcome{}, nil
	}

	out, err := c.replay(ctx, *last)
	if err != nil {
		return out, err
	}
	if to == domain.SourceReal && out.provenance() == domain.ProvenanceFallback {
		c.mu.Lock()
		c.source = domain.SourceSynthetic
		c.mu.Unlock()
		slog.Warn("Real data unavailable, staying on synthetic source", "user", last.subject)
	}
	return out, nil
}

// Retry re-runs the most recent request with a fresh attempt log.
func (c *Controller) Retry(ctx context.Context) (Outcome, error) {
	c.mu.RLock()
	last := c.last
	c.mu.RUnlock()
	if last == nil {
		return Outcome{}, ErrNothingToRetry
	}
	slog.Info("Retrying last resolution", "kind", last.kind, "user", last.subject)
	return c.replay(ctx, *last)
}

func (c *Controller) replay(ctx context.Context, req request) (Outcome, error) {
	out := Outcome{Kind: req.kind, Subject: req.subject}
	switch req.kind {
	case domain.KindLiveStats:
		rec, err := c.ResolveLiveStats(ctx, req.subject)
		if err != nil {
			return out, err
		}
		out.Live = &rec
	default:
		rec, err := c.ResolveProfile(ctx, req.subject)
		if err != nil {
			return out, err
		}
		out.Profile = &rec
	}
	return out, nil
}

func (o Outcome) provenance() domain.Provenance {
	switch {
	case o.Profile != nil:
		return o.Profile.Provenance
	case o.Live != nil:
		return o.Live.Provenance
	}
	return ""
}

// Mode returns the configured mode.
func (c *Controller) Mode() domain.Mode {
	return c.mode
}

// Source returns the current data source.
func (c *Controller) Source() domain.DataSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

// LastAttempts returns the attempt log of the latest real resolution.
func (c *Controller) LastAttempts() []domain.FailureRecord {
	return c.resolver.LastAttempts()
}

// State returns a snapshot for status surfaces.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := State{
		Mode:         c.mode,
		Source:       c.source,
		LastAttempts: c.resolver.LastAttempts(),
		LastError:    c.lastErr,
	}
	if c.last != nil {
		st.LastKind = c.last.kind
		st.LastSubject = c.last.subject
	}
	return st
}

func (c *Controller) remember(kind domain.RequestKind, handle string) {
	c.mu.Lock()
	c.last = &request{kind: kind, subject: handle}
	c.mu.Unlock()
}

func (c *Controller) setLastErr(err *failure.ResolvedError) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Controller) count(kind domain.RequestKind, outcome string) {
	metrics.ResolutionsTotal.WithLabelValues(string(kind), string(c.mode), outcome).Inc()
}
