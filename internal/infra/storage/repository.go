package storage

import (
	"context"
	"time"

	"github.com/vietddude/tikwatch/internal/core/domain"
)

// ProfileCache is the key/value store behind profile resolution. Entries are
// never returned once their TTL has elapsed. A second Put for the same key
// replaces both the value and its expiry.
type ProfileCache interface {
	// Get returns the cached record, or false if absent or expired
	Get(ctx context.Context, key string) (domain.ProfileRecord, bool)

	// Put stores a record for ttl
	Put(ctx context.Context, key string, rec domain.ProfileRecord, ttl time.Duration)

	// Backend names the implementation for logs and metrics
	Backend() string
}

// ProfileKey is the cache key for a handle.
func ProfileKey(handle string) string {
	return "profile:" + handle
}
