package routing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// ErrNoProxies is returned when the rotator is built from an empty list.
var ErrNoProxies = errors.New("configuration error: proxy list is empty")

// ProxyRotator hands out forwarding proxies in round-robin order. The cursor
// advances on every call regardless of how the previous attempt went.
type ProxyRotator struct {
	mu      sync.Mutex
	proxies []string
	cursor  int
}

// NewProxyRotator creates a rotator over the given proxy base addresses.
func NewProxyRotator(proxies []string) (*ProxyRotator, error) {
	cleaned := make([]string, 0, len(proxies))
	for _, p := range proxies {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoProxies
	}
	return &ProxyRotator{proxies: cleaned}, nil
}

// Next returns the next proxy base address, wrapping around.
func (pr *ProxyRotator) Next() string {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	p := pr.proxies[pr.cursor]
	pr.cursor = (pr.cursor + 1) % len(pr.proxies)
	return p
}

// Len returns the number of proxies in the rotation.
func (pr *ProxyRotator) Len() int {
	return len(pr.proxies)
}

// Proxies returns a copy of the rotation list.
func (pr *ProxyRotator) Proxies() []string {
	out := make([]string, len(pr.proxies))
	copy(out, pr.proxies)
	return out
}

// BuildURL joins a proxy base address and the target URL. Every public proxy
// in use takes the escaped target appended to its base.
func BuildURL(proxy, target string) string {
	return proxy + url.QueryEscape(target)
}

// ProxyName returns a short label for metrics and logs.
func ProxyName(proxy string) string {
	u, err := url.Parse(proxy)
	if err != nil || u.Host == "" {
		return fmt.Sprintf("proxy(%s)", proxy)
	}
	return u.Host
}
