package premium

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/core/failure"
	"github.com/vietddude/tikwatch/internal/infra/rpc"
	"github.com/vietddude/tikwatch/internal/infra/rpc/provider"
	"github.com/vietddude/tikwatch/internal/infra/source"
)

type mockFetcher struct {
	body      string
	err       error
	callCount int
	headers   map[string]string
	url       string
}

func (m *mockFetcher) Direct(ctx context.Context, url string, headers map[string]string) (*provider.Response, error) {
	m.callCount++
	m.url = url
	m.headers = headers
	if m.err != nil {
		return nil, m.err
	}
	return &provider.Response{Status: 200, Body: []byte(m.body)}, nil
}

func (m *mockFetcher) ViaProxy(ctx context.Context, target string, headers map[string]string) (*provider.Response, error) {
	return nil, errors.New("premium must not use proxies")
}

func TestFetchProfile_PlaceholderKeyFailsFast(t *testing.T) {
	for _, key := range []string{"", "TU_RAPIDAPI_KEY_AQUI", "your_rapidapi_key", "${RAPIDAPI_KEY}"} {
		f := &mockFetcher{}
		a := New(Config{APIKey: key, BaseURL: "https://api"}, f)

		_, err := a.FetchProfile(context.Background(), "alice")
		if got := failure.Classify(err); got != domain.CategoryAPIKey {
			t.Errorf("key %q: category = %s, want API_KEY_ERROR", key, got)
		}
		if !errors.Is(err, source.ErrPlaceholderKey) {
			t.Errorf("key %q: expected ErrPlaceholderKey, got %v", key, err)
		}
		if f.callCount != 0 {
			t.Errorf("key %q: network was called", key)
		}
	}
}

func TestFetchProfile_Success(t *testing.T) {
	f := &mockFetcher{body: `{
		"code": 0, "msg": "success",
		"data": {
			"user": {"uniqueId": "alice", "nickname": "Alice", "verified": true, "signature": "hi",
				"avatarLarger": "https://img/alice.jpg"},
			"stats": {"followerCount": 12000, "followingCount": 10, "heartCount": 500000, "videoCount": 42}
		}
	}`}
	a := New(Config{APIKey: "real-key", Host: "tiktok-scraper7.p.rapidapi.com", BaseURL: "https://api/"}, f)

	rec, err := a.FetchProfile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.FollowerCount != 12000 || rec.LikeCount != 500000 || rec.VideoCount != 42 || !rec.Verified {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Provenance != domain.ProvenancePremium {
		t.Errorf("unexpected provenance %s", rec.Provenance)
	}
	if f.url != "https://api/user/info?unique_id=alice" {
		t.Errorf("unexpected url %s", f.url)
	}
	if f.headers["X-RapidAPI-Key"] != "real-key" || f.headers["X-RapidAPI-Host"] != "tiktok-scraper7.p.rapidapi.com" {
		t.Errorf("missing RapidAPI headers: %v", f.headers)
	}
}

func TestFetchProfile_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want domain.Category
	}{
		{"unauthorized", "", &provider.StatusError{Code: 401}, domain.CategoryAPIKey},
		{"forbidden", "", &provider.StatusError{Code: 403}, domain.CategoryAPIKey},
		{"rate limited", "", &provider.StatusError{Code: 429}, domain.CategoryRateLimited},
		{"timeout", "", provider.ErrTimeout, domain.CategoryTimeout},
		{"bad json", "<html>", nil, domain.CategoryParse},
		{"no fields", `{"code":0,"data":{}}`, nil, domain.CategoryParse},
		{"user missing", `{"code":-1,"msg":"user not exist"}`, nil, domain.CategoryUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(Config{APIKey: "k", BaseURL: "https://api"}, &mockFetcher{body: tt.body, err: tt.err})
			_, err := a.FetchProfile(context.Background(), "alice")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := failure.Classify(err); got != tt.want {
				t.Errorf("category = %s, want %s (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestFetchProfile_DailyQuota(t *testing.T) {
	f := &mockFetcher{body: `{"code":0,"data":{"stats":{"followerCount":1}}}`}
	a := New(Config{APIKey: "real-key", BaseURL: "https://api", DailyQuota: 2}, f)

	for i := 0; i < 2; i++ {
		if _, err := a.FetchProfile(context.Background(), "alice"); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
	}

	_, err := a.FetchProfile(context.Background(), "alice")
	if got := failure.Classify(err); got != domain.CategoryRateLimited {
		t.Errorf("category = %s, want RATE_LIMITED", got)
	}
	if f.callCount != 2 {
		t.Errorf("exhausted quota must not reach the network, got %d calls", f.callCount)
	}
	if u := a.Usage(); u.TotalCalls != 2 || u.RemainingCalls != 0 {
		t.Errorf("unexpected usage %+v", u)
	}
}

func TestFetchProfile_TransportFailuresIgnoreHandle(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.Category
	}{
		{"timeout", &provider.TransportError{Route: "direct", Timeout: 10 * time.Second, Err: context.DeadlineExceeded}, domain.CategoryTimeout},
		{"network", &provider.TransportError{Route: "direct", Err: errors.New("connection refused")}, domain.CategoryNetwork},
	}

	for _, tt := range tests {
		for _, handle := range []string{"alice", "x401", "1direction", "4everyoung"} {
			t.Run(tt.name+"/"+handle, func(t *testing.T) {
				a := New(Config{APIKey: "k", BaseURL: "https://api"}, &mockFetcher{err: tt.err})
				_, err := a.FetchProfile(context.Background(), handle)
				if got := failure.Classify(err); got != tt.want {
					t.Errorf("category = %s, want %s (err: %v)", got, tt.want, err)
				}
			})
		}
	}
}

func TestFetchProfile_QuotaCountsSentRequestsOnly(t *testing.T) {
	notSent := fmt.Errorf("%w: rate limiter: %w", rpc.ErrNotSent, context.Canceled)
	a := New(Config{APIKey: "k", BaseURL: "https://api", DailyQuota: 5}, &mockFetcher{err: notSent})

	if _, err := a.FetchProfile(context.Background(), "alice"); err == nil {
		t.Fatal("expected error")
	}
	if u := a.Usage(); u.TotalCalls != 0 {
		t.Errorf("a call that never left the process used quota: %+v", u)
	}

	a = New(Config{APIKey: "k", BaseURL: "https://api", DailyQuota: 5},
		&mockFetcher{err: &provider.StatusError{Code: 500}})
	if _, err := a.FetchProfile(context.Background(), "alice"); err == nil {
		t.Fatal("expected error")
	}
	if u := a.Usage(); u.TotalCalls != 1 {
		t.Errorf("a sent request that failed must still use quota: %+v", u)
	}
}
