package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vietddude/tikwatch/internal/infra/rpc/budget"
	"github.com/vietddude/tikwatch/internal/infra/rpc/provider"
	"github.com/vietddude/tikwatch/internal/infra/rpc/routing"
)

// ErrNotSent marks a call that ended before any request left the process,
// for example while waiting on the rate limiter.
var ErrNotSent = errors.New("request not sent")

// Fetcher is what source adapters use to reach the network.
type Fetcher interface {
	Direct(ctx context.Context, url string, headers map[string]string) (*provider.Response, error)
	ViaProxy(ctx context.Context, target string, headers map[string]string) (*provider.Response, error)
}

// Client gates every attempt on the limiter and picks proxies from the rotator.
type Client struct {
	transport     provider.Transport
	limiter       *budget.Limiter
	rotator       *routing.ProxyRotator
	proxyAttempts int
}

// NewClient creates a client. proxyAttempts bounds the proxies tried per
// ViaProxy call; zero or more than the rotation size means one pass.
func NewClient(
	transport provider.Transport,
	limiter *budget.Limiter,
	rotator *routing.ProxyRotator,
	proxyAttempts int,
) *Client {
	if proxyAttempts <= 0 || proxyAttempts > rotator.Len() {
		proxyAttempts = rotator.Len()
	}
	return &Client{
		transport:     transport,
		limiter:       limiter,
		rotator:       rotator,
		proxyAttempts: proxyAttempts,
	}
}

// Direct performs one rate-limited request without a proxy.
func (c *Client) Direct(
	ctx context.Context,
	url string,
	headers map[string]string,
) (*provider.Response, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrNotSent, err)
	}
	return c.transport.Get(ctx, provider.Request{URL: url, Headers: headers, Route: "direct"})
}

// ViaProxy fetches target through the proxy chain. Each attempt takes the next
// proxy and a fresh limiter grant. Failures the proxy cannot be blamed for,
// such as a timeout, end the call immediately; others move on to the next proxy.
func (c *Client) ViaProxy(
	ctx context.Context,
	target string,
	headers map[string]string,
) (*provider.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= c.proxyAttempts; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrNotSent, err)
		}

		proxy := c.rotator.Next()
		route := routing.ProxyName(proxy)
		resp, err := c.transport.Get(ctx, provider.Request{
			URL:     routing.BuildURL(proxy, target),
			Headers: headers,
			Route:   route,
		})
		if err == nil {
			resp.Body = UnwrapProxyBody(resp.Body)
			return resp, nil
		}
		action := routing.ClassifyAttempt(err)
		slog.Debug("Proxy attempt failed",
			"proxy", route,
			"attempt", attempt,
			"target", target,
			"action", action,
			"error", err,
		)
		if action == routing.ActionAbort {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("all %d proxy attempts failed: %w", c.proxyAttempts, lastErr)
}
