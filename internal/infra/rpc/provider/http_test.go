package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/core/failure"
)

func TestHTTPTransport_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("X-RapidAPI-Key"); got != "k" {
			t.Errorf("expected custom header to be forwarded, got %q", got)
		}
		if r.Header.Get("User-Agent") != "tikwatch-test" {
			t.Errorf("expected default user agent, got %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport(HTTPOptions{Timeout: 2 * time.Second, UserAgent: "tikwatch-test"})

	resp, err := tr.Get(context.Background(), Request{
		URL:     server.URL,
		Headers: map[string]string{"X-RapidAPI-Key": "k"},
		Route:   "direct",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != 200 || string(resp.Body) != `{"ok":true}` {
		t.Errorf("unexpected response: %d %s", resp.Status, resp.Body)
	}
	if tr.Stats()["direct"].Successes != 1 {
		t.Errorf("expected route monitor to record success, got %+v", tr.Stats())
	}
}

func TestHTTPTransport_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   RouteStatus
	}{
		{"rate limited", http.StatusTooManyRequests, StatusThrottled},
		{"forbidden", http.StatusForbidden, StatusBlocked},
		{"not found", http.StatusNotFound, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			tr := NewHTTPTransport(HTTPOptions{Timeout: time.Second})
			_, err := tr.Get(context.Background(), Request{URL: server.URL, Route: "r"})

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if se.StatusCode() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, se.StatusCode())
			}
			if got := tr.Monitor("r").CheckStatus(); got != tt.want {
				t.Errorf("route status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHTTPTransport_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	tr := NewHTTPTransport(HTTPOptions{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := tr.Get(context.Background(), Request{URL: server.URL})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout was not honored")
	}
}

func TestHTTPTransport_ErrorsKeepTheirCategory(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tr := NewHTTPTransport(HTTPOptions{Timeout: 50 * time.Millisecond})

	for _, handle := range []string{"alice", "1direction", "3pac", "4everyoung", "x401"} {
		_, err := tr.Get(context.Background(), Request{URL: slow.URL + "/@" + handle, Route: "slow"})
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("%s: expected ErrTimeout, got %v", handle, err)
		}
		if strings.Contains(err.Error(), handle) {
			t.Errorf("%s: timeout message leaks the request URL: %v", handle, err)
		}
		if got := failure.Classify(err); got != domain.CategoryTimeout {
			t.Errorf("%s: timeout classified as %s", handle, got)
		}

		_, err = tr.Get(context.Background(), Request{URL: closedURL + "/@" + handle, Route: "closed"})
		if err == nil {
			t.Fatalf("%s: expected a connection error", handle)
		}
		if strings.Contains(err.Error(), handle) {
			t.Errorf("%s: network message leaks the request URL: %v", handle, err)
		}
		if got := failure.Classify(err); got != domain.CategoryNetwork {
			t.Errorf("%s: network failure classified as %s", handle, got)
		}
	}
}
