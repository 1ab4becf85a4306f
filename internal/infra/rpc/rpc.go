// Package rpc routes outbound requests through the shared rate limiter and,
// for proxied requests, the rotating proxy chain.
//
//   - budget/   - process-wide Limiter
//   - routing/  - ProxyRotator and proxy URL helpers
//   - provider/ - HTTP transport and per-route monitors
//
// # Quick Start
//
//	limiter := budget.NewLimiter(2 * time.Second)
//	rotator, err := routing.NewProxyRotator(cfg.Network.Proxies)
//	transport := provider.NewHTTPTransport(provider.HTTPOptions{Timeout: 10 * time.Second})
//	client := rpc.NewClient(transport, limiter, rotator, 0)
//
//	resp, err := client.ViaProxy(ctx, "https://www.tiktok.com/@someone", nil)
package rpc
