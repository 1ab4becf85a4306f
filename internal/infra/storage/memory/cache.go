package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/indexing/metrics"
)

// entry is one cached record. Expired entries are removed lazily on read.
type entry struct {
	key       string
	payload   domain.ProfileRecord
	createdAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.createdAt.Add(e.ttl))
}

// Cache is an in-process TTL cache. There is no background sweep.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock replaces the time source.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) Get(_ context.Context, key string) (domain.ProfileRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues(c.Backend(), "miss").Inc()
		return domain.ProfileRecord{}, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		metrics.CacheLookupsTotal.WithLabelValues(c.Backend(), "expired").Inc()
		return domain.ProfileRecord{}, false
	}

	metrics.CacheLookupsTotal.WithLabelValues(c.Backend(), "hit").Inc()
	return e.payload, true
}

func (c *Cache) Put(_ context.Context, key string, rec domain.ProfileRecord, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		key:       key,
		payload:   rec,
		createdAt: c.now(),
		ttl:       ttl,
	}
}

func (c *Cache) Backend() string {
	return "memory"
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
