package config

import (
	"fmt"
	"time"

	"github.com/vietddude/tikwatch/internal/core/domain"
)

// DefaultProxies is the public forwarding chain used when none is configured.
var DefaultProxies = []string{
	"https://api.allorigins.win/get?url=",
	"https://corsproxy.io/?",
	"https://api.codetabs.com/v1/proxy?quest=",
	"https://cors-anywhere.herokuapp.com/",
	"https://thingproxy.freeboard.io/fetch/",
}

// Default returns a configuration with every default applied.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every zero field.
func (c *AppConfig) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = string(domain.ModeStrict)
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	n := &c.Network
	if n.RateLimit == 0 {
		n.RateLimit = 2 * time.Second
	}
	if n.RequestTimeout == 0 {
		n.RequestTimeout = 10 * time.Second
	}
	if len(n.Proxies) == 0 {
		n.Proxies = append([]string(nil), DefaultProxies...)
	}
	if n.UserAgent == "" {
		n.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}

	p := &c.Sources.Premium
	if p.Host == "" {
		p.Host = "tiktok-scraper7.p.rapidapi.com"
	}
	if p.BaseURL == "" {
		p.BaseURL = "https://" + p.Host
	}
	if c.Sources.Scrape.ProfileURL == "" {
		c.Sources.Scrape.ProfileURL = "https://www.tiktok.com/@%s"
	}
	pub := &c.Sources.Public
	if len(pub.ProfileEndpoints) == 0 {
		pub.ProfileEndpoints = []string{
			"https://tiktok-video-no-watermark2.p.rapidapi.com/user/info?unique_id={id}",
			"https://api.tiktokv.com/aweme/v1/user/?user_id={id}",
		}
	}
	if len(pub.LiveEndpoints) == 0 {
		pub.LiveEndpoints = []string{
			"https://tiktok-live-api.herokuapp.com/live/{id}",
			"https://api.tiktokv.com/live/room/{id}",
			"https://webcast.tiktok.com/webcast/room/enter/?aid=1988&unique_id={id}",
		}
	}

	l := &c.Live
	if l.PollInterval == 0 {
		l.PollInterval = 8 * time.Second
	}
	if l.MaxComments == 0 {
		l.MaxComments = domain.DefaultMaxComments
	}
	if l.ErrorRetryDelay == 0 {
		l.ErrorRetryDelay = 5 * time.Second
	}
	if l.MaxErrorRetries == 0 {
		l.MaxErrorRetries = 5
	}
	if l.Alerts.FollowerGain == 0 {
		l.Alerts.FollowerGain = 10
	}
	if l.Alerts.LikeMilestone == 0 {
		l.Alerts.LikeMilestone = 1000
	}
	if l.Alerts.ViewerPeakStep == 0 {
		l.Alerts.ViewerPeakStep = 100
	}
}

// Validate reports configuration errors that defaults cannot repair.
func (c *AppConfig) Validate() error {
	if _, err := domain.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("invalid mode: %w", err)
	}
	if len(c.Network.Proxies) == 0 {
		return fmt.Errorf("network.proxies must not be empty")
	}
	if c.Network.RateLimit < 0 || c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("network durations must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("cache.backend is redis but redis.url is empty")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Sources.Premium.DailyQuota < 0 {
		return fmt.Errorf("sources.premium.daily_quota must not be negative")
	}
	if c.Live.MaxComments < 0 {
		return fmt.Errorf("live.max_comments must not be negative")
	}
	return nil
}
