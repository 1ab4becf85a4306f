package provider

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/vietddude/tikwatch/internal/indexing/metrics"
)

// HTTPOptions configures an HTTPTransport.
type HTTPOptions struct {
	Timeout          time.Duration
	UserAgent        string
	CloudflareBypass bool
	TracerName       string
}

// HTTPTransport implements Transport on top of resty.
type HTTPTransport struct {
	client  *resty.Client
	timeout time.Duration

	mu       sync.RWMutex
	monitors map[string]*RouteMonitor
}

// NewHTTPTransport creates a transport with the given options.
func NewHTTPTransport(opts HTTPOptions) *HTTPTransport {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.TracerName == "" {
		opts.TracerName = "tikwatch/http"
	}

	client := resty.New()
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	instrument(client, opts.TracerName)

	return &HTTPTransport{
		client:   client,
		timeout:  opts.Timeout,
		monitors: make(map[string]*RouteMonitor),
	}
}

// Get performs one GET bounded by the transport timeout.
func (t *HTTPTransport) Get(ctx context.Context, req Request) (*Response, error) {
	route := req.Route
	if route == "" {
		route = "direct"
	}
	monitor := t.Monitor(route)

	attemptCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	resp, err := t.client.R().
		SetContext(attemptCtx).
		SetHeaders(req.Headers).
		Get(req.URL)
	latency := time.Since(start)
	metrics.HTTPLatency.WithLabelValues(route).Observe(latency.Seconds())

	if err != nil {
		monitor.RecordFailure()
		if isTimeout(attemptCtx, err) {
			metrics.HTTPRequestsTotal.WithLabelValues(route, "timeout").Inc()
			return nil, &TransportError{Route: route, Timeout: t.timeout, Err: err}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, "error").Inc()
		return nil, &TransportError{Route: route, Err: err}
	}

	code := resp.StatusCode()
	metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()

	switch {
	case code == 429:
		monitor.RecordThrottle(429, resp.Header().Get("Retry-After"))
		return nil, &StatusError{Code: code, Body: truncate(resp.Body(), 200)}
	case code == 403:
		monitor.RecordThrottle(403, "")
		return nil, &StatusError{Code: code, Body: truncate(resp.Body(), 200)}
	case code < 200 || code > 299:
		monitor.RecordFailure()
		return nil, &StatusError{Code: code, Body: truncate(resp.Body(), 200)}
	}

	monitor.RecordRequest(latency)
	return &Response{
		Status:  code,
		Body:    resp.Body(),
		Header:  resp.Header(),
		Latency: latency,
	}, nil
}

// Monitor returns the monitor for a route, creating it on first use.
func (t *HTTPTransport) Monitor(route string) *RouteMonitor {
	t.mu.RLock()
	m, ok := t.monitors[route]
	t.mu.RUnlock()
	if ok {
		return m
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok = t.monitors[route]; ok {
		return m
	}
	m = NewRouteMonitor()
	t.monitors[route] = m
	return m
}

// Stats returns a snapshot of every route monitor.
func (t *HTTPTransport) Stats() map[string]MonitorStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]MonitorStats, len(t.monitors))
	for route, m := range t.monitors {
		out[route] = m.GetStats()
	}
	return out
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
