// Package provider implements the outbound HTTP transport.
//
// This package contains:
//   - Transport interface: GET with custom headers and a per-attempt timeout
//   - HTTPTransport: resty-backed implementation with tracing hooks
//   - RouteMonitor: per-route latency and throttle tracking
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vietddude/tikwatch/internal/core/domain"
)

// ErrTimeout marks an attempt that exceeded its time bound.
var ErrTimeout = errors.New("request timeout")

// Request describes one outbound GET.
type Request struct {
	URL     string
	Headers map[string]string
	// Route labels the path taken (a proxy host or "direct") for metrics.
	Route string
}

// Response is a successful (2xx) HTTP response.
type Response struct {
	Status  int
	Body    []byte
	Header  http.Header
	Latency time.Duration
}

// Transport performs single HTTP attempts. Implementations never retry.
type Transport interface {
	Get(ctx context.Context, req Request) (*Response, error)
}

// TransportError is an attempt that never produced a response. Its message
// names the route but not the request URL, which carries the subject handle.
type TransportError struct {
	Route   string
	Timeout time.Duration // non-zero when the attempt timed out
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%v after %s via %s", ErrTimeout, e.Timeout, e.Route)
	}
	cause := e.Err
	var urlErr *url.Error
	if errors.As(cause, &urlErr) {
		cause = urlErr.Err
	}
	return fmt.Sprintf("network request via %s failed: %v", e.Route, cause)
}

// Unwrap returns ErrTimeout for timeouts and the transport cause otherwise.
func (e *TransportError) Unwrap() error {
	if e.Timeout > 0 {
		return ErrTimeout
	}
	return e.Err
}

// FailureCategory is TIMEOUT_ERROR or NETWORK_ERROR, whatever the message says.
func (e *TransportError) FailureCategory() domain.Category {
	if e.Timeout > 0 {
		return domain.CategoryTimeout
	}
	return domain.CategoryNetwork
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("HTTP %d: %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// StatusCode returns the HTTP status.
func (e *StatusError) StatusCode() int {
	return e.Code
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
