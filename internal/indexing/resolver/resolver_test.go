package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/core/failure"
	"github.com/vietddude/tikwatch/internal/infra/rpc/provider"
	"github.com/vietddude/tikwatch/internal/infra/source"
	"github.com/vietddude/tikwatch/internal/infra/storage/memory"
)

// mockSource implements source.ProfileSource with scripted results.
type mockSource struct {
	name      string
	profile   domain.ProfileRecord
	err       error
	callCount int
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) FetchProfile(ctx context.Context, handle string) (domain.ProfileRecord, error) {
	m.callCount++
	if m.err != nil {
		return domain.ProfileRecord{}, m.err
	}
	rec := m.profile
	rec.Handle = handle
	return rec, nil
}

// mockLiveSource adds live stats.
type mockLiveSource struct {
	mockSource
	live      domain.LiveStatsRecord
	liveErr   error
	liveCalls int
}

func (m *mockLiveSource) FetchLiveStats(ctx context.Context, handle string) (domain.LiveStatsRecord, error) {
	m.liveCalls++
	if m.liveErr != nil {
		return domain.LiveStatsRecord{}, m.liveErr
	}
	return m.live, nil
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func placeholderPremium() *mockSource {
	return &mockSource{
		name: source.NamePremium,
		err:  source.Fail(source.NamePremium, domain.CategoryAPIKey, source.ErrPlaceholderKey),
	}
}

func emptyScrape() *mockSource {
	return &mockSource{
		name: source.NameScrape,
		err:  source.Fail(source.NameScrape, domain.CategoryParse, errors.New("no fields extracted from profile markup")),
	}
}

func newResolver(clock *fakeClock, sources ...source.ProfileSource) *Resolver {
	cache := memory.NewCache().WithClock(clock.Now)
	return New(sources, cache, Options{CacheTTL: 5 * time.Minute, MaxComments: 15, Clock: clock.Now})
}

func TestResolveProfile_FallsThroughToPublic(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	public := &mockSource{
		name:    source.NamePublic,
		profile: domain.ProfileRecord{FollowerCount: 12000, Provenance: domain.ProvenancePublicAPI},
	}
	r := newResolver(clock, placeholderPremium(), emptyScrape(), public)

	rec, err := r.ResolveProfile(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, int64(12000), rec.FollowerCount)
	require.Equal(t, domain.ProvenancePublicAPI, rec.Provenance)

	attempts := r.LastAttempts()
	require.Len(t, attempts, 2)
	require.Equal(t, domain.CategoryAPIKey, attempts[0].Category)
	require.Equal(t, source.NamePremium, attempts[0].Source)
	require.Equal(t, domain.CategoryParse, attempts[1].Category)
	require.Equal(t, source.NameScrape, attempts[1].Source)
}

func TestResolveProfile_AllFailClassifiedByLast(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	public := &mockSource{
		name: source.NamePublic,
		err:  source.Fail(source.NamePublic, "", fmt.Errorf("public endpoints exhausted: %w", &provider.StatusError{Code: 429})),
	}
	r := newResolver(clock, placeholderPremium(), emptyScrape(), public)

	_, err := r.ResolveProfile(context.Background(), "alice")

	var resolved *failure.ResolvedError
	require.ErrorAs(t, err, &resolved)
	require.Equal(t, domain.CategoryRateLimited, resolved.Category)
	require.Len(t, resolved.Attempts, 3)
	require.Equal(t, MethodProfile, resolved.Method)
	require.Equal(t, "alice", resolved.Subject)
	require.NotEmpty(t, resolved.Suggestions)
	require.Equal(t, []string{source.NamePremium, source.NameScrape, source.NamePublic},
		[]string{resolved.Attempts[0].Source, resolved.Attempts[1].Source, resolved.Attempts[2].Source})
}

func TestResolveProfile_AttemptLogMatchesSourceCount(t *testing.T) {
	for n := 1; n <= 3; n++ {
		t.Run(fmt.Sprintf("%d sources", n), func(t *testing.T) {
			var sources []source.ProfileSource
			for i := 0; i < n; i++ {
				sources = append(sources, &mockSource{name: fmt.Sprintf("s%d", i), err: errors.New("connection refused")})
			}
			r := newResolver(&fakeClock{t: time.Now()}, sources...)

			_, err := r.ResolveProfile(context.Background(), "alice")
			var resolved *failure.ResolvedError
			require.ErrorAs(t, err, &resolved)
			require.Len(t, resolved.Attempts, n)
			require.Len(t, r.LastAttempts(), n)
		})
	}
}

func TestResolveProfile_CacheRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	public := &mockSource{name: source.NamePublic, profile: domain.ProfileRecord{FollowerCount: 7}}
	r := newResolver(clock, public)
	ctx := context.Background()

	first, err := r.ResolveProfile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, public.callCount)

	clock.Advance(4 * time.Minute)
	second, err := r.ResolveProfile(ctx, "@alice")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, public.callCount, "cached profile must not hit sources")

	clock.Advance(2 * time.Minute)
	_, err = r.ResolveProfile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 2, public.callCount, "expired entry must trigger a fresh resolution")
}

func TestResolveProfile_FailureIsNotCached(t *testing.T) {
	src := &mockSource{name: source.NamePublic, err: errors.New("connection refused")}
	r := newResolver(&fakeClock{t: time.Now()}, src)

	_, err := r.ResolveProfile(context.Background(), "alice")
	require.Error(t, err)
	_, err = r.ResolveProfile(context.Background(), "alice")
	require.Error(t, err)
	require.Equal(t, 2, src.callCount)
}

func TestResolveProfile_StopsAtFirstSuccess(t *testing.T) {
	first := &mockSource{name: "a", profile: domain.ProfileRecord{FollowerCount: 1}}
	second := &mockSource{name: "b", profile: domain.ProfileRecord{FollowerCount: 2}}
	r := newResolver(&fakeClock{t: time.Now()}, first, second)

	rec, err := r.ResolveProfile(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.FollowerCount)
	require.Equal(t, 0, second.callCount)
	require.Empty(t, r.LastAttempts())
}

func TestResolveProfile_EmptyHandle(t *testing.T) {
	src := &mockSource{name: "a"}
	r := newResolver(&fakeClock{t: time.Now()}, src)

	_, err := r.ResolveProfile(context.Background(), "  @ ")
	var resolved *failure.ResolvedError
	require.ErrorAs(t, err, &resolved)
	require.Equal(t, domain.CategoryUserNotFound, resolved.Category)
	require.Equal(t, 0, src.callCount)
}

func TestResolveLiveStats_NotLiveStopsChain(t *testing.T) {
	offline := &mockLiveSource{
		mockSource: mockSource{name: "first"},
		liveErr:    source.Fail("first", domain.CategoryUserNotFound, fmt.Errorf("alice: %w", source.ErrNotLive)),
	}
	other := &mockLiveSource{mockSource: mockSource{name: "second"}, live: domain.LiveStatsRecord{IsLive: true}}
	r := newResolver(&fakeClock{t: time.Now()}, offline, other)

	_, err := r.ResolveLiveStats(context.Background(), "alice")

	var resolved *failure.ResolvedError
	require.ErrorAs(t, err, &resolved)
	require.True(t, resolved.NotLive)
	require.Equal(t, domain.CategoryUserNotFound, resolved.Category)
	require.Len(t, resolved.Attempts, 1)
	require.Equal(t, 0, other.liveCalls)
}

func TestResolveLiveStats_SkipsSourcesWithoutLiveSupport(t *testing.T) {
	profileOnly := &mockSource{name: source.NameScrape}
	comments := make([]domain.CommentRecord, 30)
	live := &mockLiveSource{
		mockSource: mockSource{name: source.NamePublic},
		live:       domain.LiveStatsRecord{IsLive: true, Viewers: 10, Comments: comments},
	}
	r := newResolver(&fakeClock{t: time.Now()}, profileOnly, live)

	rec, err := r.ResolveLiveStats(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, int64(10), rec.Viewers)
	require.Len(t, rec.Comments, 15)
	require.Equal(t, 0, profileOnly.callCount)
	require.Empty(t, r.LastAttempts())
}

func TestResolveLiveStats_NeverCached(t *testing.T) {
	live := &mockLiveSource{mockSource: mockSource{name: "p"}, live: domain.LiveStatsRecord{IsLive: true}}
	r := newResolver(&fakeClock{t: time.Now()}, live)

	for i := 0; i < 3; i++ {
		_, err := r.ResolveLiveStats(context.Background(), "alice")
		require.NoError(t, err)
	}
	require.Equal(t, 3, live.liveCalls)
}

func TestResolveLiveStats_NoLiveSource(t *testing.T) {
	r := newResolver(&fakeClock{t: time.Now()}, &mockSource{name: "p"})

	_, err := r.ResolveLiveStats(context.Background(), "alice")
	var resolved *failure.ResolvedError
	require.ErrorAs(t, err, &resolved)
	require.Empty(t, resolved.Attempts)
}
