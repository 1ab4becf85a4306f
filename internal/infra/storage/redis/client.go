package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/indexing/metrics"
)

// Config holds Redis connection configuration.
type Config struct {
	URL       string `yaml:"url"`
	Password  string `yaml:"password"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Client is a profile cache backed by Redis key expiry.
type Client struct {
	rdb    redis.Cmdable
	closer func() error
	prefix string
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newClient(rdb, rdb.Close, cfg.KeyPrefix), nil
}

func newClient(rdb redis.Cmdable, closer func() error, prefix string) *Client {
	if prefix == "" {
		prefix = "tikwatch:"
	}
	return &Client{rdb: rdb, closer: closer, prefix: prefix}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func (c *Client) key(k string) string {
	return c.prefix + k
}

// Get reads a record. Redis errors are logged and treated as a miss so a
// cache outage never fails a resolution.
func (c *Client) Get(ctx context.Context, key string) (domain.ProfileRecord, bool) {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookupsTotal.WithLabelValues(c.Backend(), "miss").Inc()
		return domain.ProfileRecord{}, false
	}
	if err != nil {
		slog.Warn("Redis cache get failed", "key", key, "error", err)
		metrics.CacheLookupsTotal.WithLabelValues(c.Backend(), "error").Inc()
		return domain.ProfileRecord{}, false
	}

	rec, err := decodeProfile(val)
	if err != nil {
		slog.Warn("Dropping undecodable cache entry", "key", key, "error", err)
		_ = c.rdb.Del(ctx, c.key(key)).Err()
		metrics.CacheLookupsTotal.WithLabelValues(c.Backend(), "error").Inc()
		return domain.ProfileRecord{}, false
	}

	metrics.CacheLookupsTotal.WithLabelValues(c.Backend(), "hit").Inc()
	return rec, true
}

// Put writes a record with a Redis-side expiry.
func (c *Client) Put(ctx context.Context, key string, rec domain.ProfileRecord, ttl time.Duration) {
	data, err := encodeProfile(rec)
	if err != nil {
		slog.Warn("Failed to encode profile for cache", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		slog.Warn("Redis cache put failed", "key", key, "error", err)
	}
}

func (c *Client) Backend() string {
	return "redis"
}

func encodeProfile(rec domain.ProfileRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func decodeProfile(data []byte) (domain.ProfileRecord, error) {
	var rec domain.ProfileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.ProfileRecord{}, fmt.Errorf("decode profile: %w", err)
	}
	return rec, nil
}
