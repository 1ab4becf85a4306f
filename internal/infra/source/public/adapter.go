// Package public implements the unauthenticated endpoint source. It is the
// only source with live-stats support.
package public

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/infra/rpc"
	"github.com/vietddude/tikwatch/internal/infra/rpc/provider"
	"github.com/vietddude/tikwatch/internal/infra/source"
)

// Config configures the adapter.
type Config struct {
	ProfileEndpoints []string
	LiveEndpoints    []string
	MaxComments      int
}

// Adapter tries each configured endpoint in order through the proxy chain and
// returns the first structurally valid response.
type Adapter struct {
	cfg     Config
	fetcher rpc.Fetcher
	now     func() time.Time
}

// New creates a public endpoint adapter.
func New(cfg Config, fetcher rpc.Fetcher) *Adapter {
	return &Adapter{cfg: cfg, fetcher: fetcher, now: time.Now}
}

func (a *Adapter) Name() string {
	return source.NamePublic
}

func (a *Adapter) FetchProfile(ctx context.Context, handle string) (domain.ProfileRecord, error) {
	if len(a.cfg.ProfileEndpoints) == 0 {
		return domain.ProfileRecord{}, source.Fail(a.Name(), domain.CategoryUnknown,
			errors.New("no profile endpoints configured"))
	}

	var lastErr error
	for _, tmpl := range a.cfg.ProfileEndpoints {
		target := source.Expand(tmpl, handle)
		payload, err := a.fetchJSON(ctx, target)
		if err != nil {
			if errors.Is(err, provider.ErrTimeout) {
				return domain.ProfileRecord{}, source.Fail(a.Name(), domain.CategoryTimeout, err)
			}
			lastErr = err
			continue
		}

		if !hasProfileShape(payload) {
			lastErr = fmt.Errorf("unexpected shape from %s", hostOf(target))
			slog.Debug("Public endpoint returned no profile", "endpoint", hostOf(target))
			continue
		}
		rec, found := source.ProfileFromFields(handle, source.Flatten(payload), domain.ProvenancePublicAPI, a.now())
		if found == 0 {
			lastErr = fmt.Errorf("unexpected shape from %s: no profile fields", hostOf(target))
			continue
		}
		return rec, nil
	}

	return domain.ProfileRecord{}, source.Fail(a.Name(), "",
		fmt.Errorf("public endpoints exhausted: %w", lastErr))
}

// FetchLiveStats tries every live endpoint. A valid response that reports the
// stream as offline is remembered; if no endpoint reports the stream live, the
// call fails with ErrNotLive instead of a transport error.
func (a *Adapter) FetchLiveStats(ctx context.Context, handle string) (domain.LiveStatsRecord, error) {
	if len(a.cfg.LiveEndpoints) == 0 {
		return domain.LiveStatsRecord{}, source.Fail(a.Name(), domain.CategoryUnknown,
			errors.New("no live endpoints configured"))
	}

	var (
		lastErr    error
		sawOffline bool
	)
	for _, tmpl := range a.cfg.LiveEndpoints {
		target := source.Expand(tmpl, handle)
		payload, err := a.fetchJSON(ctx, target)
		if err != nil {
			if errors.Is(err, provider.ErrTimeout) {
				return domain.LiveStatsRecord{}, source.Fail(a.Name(), domain.CategoryTimeout, err)
			}
			lastErr = err
			continue
		}

		fields := source.Flatten(payload)
		live, known := liveStatus(fields)
		if !known {
			lastErr = fmt.Errorf("unexpected shape from %s: no live status", hostOf(target))
			continue
		}
		if !live {
			sawOffline = true
			continue
		}
		return a.liveRecord(handle, fields), nil
	}

	if sawOffline {
		return domain.LiveStatsRecord{}, source.Fail(a.Name(), domain.CategoryUserNotFound,
			fmt.Errorf("%s: %w", handle, source.ErrNotLive))
	}
	return domain.LiveStatsRecord{}, source.Fail(a.Name(), "",
		fmt.Errorf("live endpoints exhausted: %w", lastErr))
}

func (a *Adapter) fetchJSON(ctx context.Context, target string) (map[string]any, error) {
	resp, err := a.fetcher.ViaProxy(ctx, target, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	return source.DecodeObject(resp.Body)
}

func (a *Adapter) liveRecord(handle string, f source.Fields) domain.LiveStatsRecord {
	rec := domain.LiveStatsRecord{
		Handle:      handle,
		Viewers:     count(f, "viewer_count", "viewers", "user_count", "viewerCount"),
		Likes:       count(f, "total_likes", "likes", "like_count", "likeCount"),
		NewFollows:  count(f, "new_follows", "follows", "newFollows"),
		Shares:      count(f, "shares", "share_count", "shareCount"),
		Comments:    a.comments(f),
		IsLive:      true,
		Provenance:  domain.ProvenanceLiveAPI,
		RetrievedAt: a.now(),
	}
	return rec.Normalize(a.cfg.MaxComments)
}

func (a *Adapter) comments(f source.Fields) []domain.CommentRecord {
	var raw []any
	for _, key := range []string{"recent_comments", "comments"} {
		if list, ok := f[key].([]any); ok {
			raw = list
			break
		}
	}

	out := make([]domain.CommentRecord, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		cf := source.Fields(m)
		text, _ := cf.Text("text", "comment", "content")
		if text == "" {
			continue
		}
		id, ok := cf.Text("id", "msg_id")
		if !ok {
			id = uuid.NewString()
		}
		author, _ := cf.Text("user", "nickname", "author", "unique_id")
		out = append(out, domain.CommentRecord{
			ID:        id,
			Author:    author,
			Text:      text,
			Timestamp: timestamp(cf["timestamp"], a.now()),
			Likes:     count(cf, "likes", "like_count"),
		})
	}
	return out
}

// liveStatus reads "status". Strings compare against "live"; numbers follow
// the webcast room convention where 2 means streaming.
func liveStatus(f source.Fields) (live, known bool) {
	switch v := f["status"].(type) {
	case string:
		return strings.EqualFold(v, "live"), true
	case float64:
		return v == 2, true
	}
	if b, ok := f.Bool("is_live", "isLive"); ok {
		return b, true
	}
	return false, false
}

func hasProfileShape(payload map[string]any) bool {
	for _, k := range []string{"data", "user", "user_info", "userInfo"} {
		if _, ok := payload[k].(map[string]any); ok {
			return true
		}
	}
	return false
}

func count(f source.Fields, aliases ...string) int64 {
	n, _ := f.Count(aliases...)
	return n
}

// timestamp accepts unix seconds, unix milliseconds or RFC 3339.
func timestamp(v any, fallback time.Time) time.Time {
	switch x := v.(type) {
	case float64:
		if x > 1e12 {
			return time.UnixMilli(int64(x)).UTC()
		}
		if x > 0 {
			return time.Unix(int64(x), 0).UTC()
		}
	case string:
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			return t
		}
	}
	return fallback
}

func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return target
	}
	return u.Host
}
