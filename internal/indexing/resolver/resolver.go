// Package resolver runs the source priority chain for one request.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/core/failure"
	"github.com/vietddude/tikwatch/internal/indexing/metrics"
	"github.com/vietddude/tikwatch/internal/infra/source"
	"github.com/vietddude/tikwatch/internal/infra/storage"
)

const (
	MethodProfile   = "resolveProfile"
	MethodLiveStats = "resolveLiveStats"
)

var tracer = otel.Tracer("tikwatch/resolver")

// Options configures a Resolver.
type Options struct {
	CacheTTL    time.Duration
	MaxComments int
	Clock       func() time.Time
}

// Resolver tries sources strictly in order and stops at the first success.
// Profiles are read through and written to the cache; live stats never are.
type Resolver struct {
	sources []source.ProfileSource
	cache   storage.ProfileCache
	opts    Options

	mu          sync.RWMutex
	lastAttempt []domain.FailureRecord
}

// New creates a resolver over sources in priority order.
func New(sources []source.ProfileSource, cache storage.ProfileCache, opts Options) *Resolver {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Resolver{sources: sources, cache: cache, opts: opts}
}

// ResolveProfile returns the first profile any source can produce, or a
// *failure.ResolvedError describing every failed attempt.
func (r *Resolver) ResolveProfile(ctx context.Context, handle string) (domain.ProfileRecord, error) {
	handle = CleanHandle(handle)
	id := ulid.Make().String()

	ctx, span := tracer.Start(ctx, MethodProfile)
	defer span.End()
	span.SetAttributes(attribute.String("user", handle), attribute.String("resolution.id", id))

	if handle == "" {
		return domain.ProfileRecord{}, r.emptyHandle(id, MethodProfile)
	}

	key := storage.ProfileKey(handle)
	if rec, ok := r.cache.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		slog.Debug("Profile served from cache", "user", handle, "backend", r.cache.Backend())
		return rec, nil
	}

	log := domain.NewAttemptLog()
	var lastErr error
	for _, src := range r.sources {
		rec, err := src.FetchProfile(ctx, handle)
		if err == nil {
			rec = rec.Normalize()
			r.cache.Put(ctx, key, rec, r.opts.CacheTTL)
			r.finish(log)
			metrics.SourceAttemptsTotal.WithLabelValues(src.Name(), string(domain.KindProfile), "success").Inc()
			slog.Info("Resolved profile",
				"user", handle,
				"source", src.Name(),
				"followers", rec.FollowerCount,
				"failed_before", log.Len(),
			)
			return rec, nil
		}

		lastErr = err
		r.record(log, src.Name(), domain.KindProfile, err)
		if ctx.Err() != nil {
			break
		}
	}

	r.finish(log)
	resolved := failure.NewResolvedError(id, MethodProfile, handle, log, lastErr, r.opts.Clock())
	span.SetStatus(codes.Error, string(resolved.Category))
	return domain.ProfileRecord{}, resolved
}

// ResolveLiveStats runs the live-capable sources in order. A source reporting
// that the user is offline ends the chain at once: liveness is the same fact
// for every source.
func (r *Resolver) ResolveLiveStats(ctx context.Context, handle string) (domain.LiveStatsRecord, error) {
	handle = CleanHandle(handle)
	id := ulid.Make().String()

	ctx, span := tracer.Start(ctx, MethodLiveStats)
	defer span.End()
	span.SetAttributes(attribute.String("user", handle), attribute.String("resolution.id", id))

	if handle == "" {
		return domain.LiveStatsRecord{}, r.emptyHandle(id, MethodLiveStats)
	}

	log := domain.NewAttemptLog()
	var lastErr error
	for _, src := range r.sources {
		live, ok := src.(source.LiveSource)
		if !ok {
			continue
		}

		rec, err := live.FetchLiveStats(ctx, handle)
		if err == nil {
			r.finish(log)
			metrics.SourceAttemptsTotal.WithLabelValues(src.Name(), string(domain.KindLiveStats), "success").Inc()
			slog.Debug("Resolved live stats", "user", handle, "source", src.Name(), "viewers", rec.Viewers)
			return rec.Normalize(r.opts.MaxComments), nil
		}

		lastErr = err
		r.record(log, src.Name(), domain.KindLiveStats, err)
		if errors.Is(err, source.ErrNotLive) {
			r.finish(log)
			resolved := failure.NewResolvedError(id, MethodLiveStats, handle, log, err, r.opts.Clock())
			resolved.NotLive = true
			span.SetStatus(codes.Error, "not live")
			return domain.LiveStatsRecord{}, resolved
		}
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no live-capable source configured")
	}
	r.finish(log)
	resolved := failure.NewResolvedError(id, MethodLiveStats, handle, log, lastErr, r.opts.Clock())
	span.SetStatus(codes.Error, string(resolved.Category))
	return domain.LiveStatsRecord{}, resolved
}

// LastAttempts returns the failures of the most recently finished resolution
// that reached the sources.
func (r *Resolver) LastAttempts() []domain.FailureRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.FailureRecord, len(r.lastAttempt))
	copy(out, r.lastAttempt)
	return out
}

// Sources returns the source names in priority order.
func (r *Resolver) Sources() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

func (r *Resolver) record(log *domain.AttemptLog, name string, kind domain.RequestKind, err error) {
	cat := failure.Classify(err)
	log.Append(domain.FailureRecord{
		Source:    name,
		Category:  cat,
		Message:   err.Error(),
		Timestamp: r.opts.Clock(),
	})

	metrics.SourceAttemptsTotal.WithLabelValues(name, string(kind), "failure").Inc()
	metrics.SourceFailuresTotal.WithLabelValues(name, string(cat)).Inc()
	slog.Warn("Source failed",
		"source", name,
		"kind", kind,
		"category", cat,
		"error", err,
	)
}

func (r *Resolver) finish(log *domain.AttemptLog) {
	snapshot := log.Snapshot()
	r.mu.Lock()
	r.lastAttempt = snapshot
	r.mu.Unlock()
}

func (r *Resolver) emptyHandle(id, method string) error {
	log := domain.NewAttemptLog()
	r.finish(log)
	return failure.NewResolvedError(id, method, "", log, errors.New("user not found: empty handle"), r.opts.Clock())
}

// CleanHandle trims whitespace and a leading @.
func CleanHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}
