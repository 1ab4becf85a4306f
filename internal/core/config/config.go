package config

import (
	"time"

	"github.com/vietddude/tikwatch/internal/infra/storage/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Mode    string        `yaml:"mode"` // alternative, hybrid (real), strict (real_only)
	User    string        `yaml:"user"` // default subject for the live poller
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Network NetworkConfig `yaml:"network"`
	Cache   CacheConfig   `yaml:"cache"`
	Sources SourcesConfig `yaml:"sources"`
	Live    LiveConfig    `yaml:"live"`
	Redis   redis.Config  `yaml:"redis"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// NetworkConfig controls every outbound attempt.
type NetworkConfig struct {
	RateLimit      time.Duration `yaml:"rate_limit"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ProxyAttempts  int           `yaml:"proxy_attempts"` // 0 = try every proxy once
	Proxies        []string      `yaml:"proxies"`
	UserAgent      string        `yaml:"user_agent"`
}

// CacheConfig selects the profile cache backend.
type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	Backend string        `yaml:"backend"` // memory, redis
}

// SourcesConfig holds per-source endpoints and credentials.
type SourcesConfig struct {
	Premium PremiumConfig `yaml:"premium"`
	Scrape  ScrapeConfig  `yaml:"scrape"`
	Public  PublicConfig  `yaml:"public"`
}

// PremiumConfig configures the keyed RapidAPI source.
type PremiumConfig struct {
	APIKey     string `yaml:"api_key"`
	Host       string `yaml:"host"`
	BaseURL    string `yaml:"base_url"`
	DailyQuota int    `yaml:"daily_quota"` // 0 = unlimited
}

// ScrapeConfig configures the profile page scraper.
type ScrapeConfig struct {
	ProfileURL       string `yaml:"profile_url"` // %s is replaced by the handle
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`
}

// PublicConfig lists the unauthenticated endpoints, tried in order.
// Each entry may reference the handle with {id}.
type PublicConfig struct {
	ProfileEndpoints []string `yaml:"profile_endpoints"`
	LiveEndpoints    []string `yaml:"live_endpoints"`
}

// LiveConfig drives the live-stats poller.
type LiveConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxComments     int           `yaml:"max_comments"`
	ErrorRetryDelay time.Duration `yaml:"error_retry_delay"`
	MaxErrorRetries int           `yaml:"max_error_retries"`
	Alerts          AlertConfig   `yaml:"alerts"`
}

// AlertConfig holds the thresholds for live alerts.
type AlertConfig struct {
	FollowerGain   int64 `yaml:"follower_gain"`
	LikeMilestone  int64 `yaml:"like_milestone"`
	ViewerPeakStep int64 `yaml:"viewer_peak_step"`
}
