package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/tikwatch/internal/core/config"
	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/indexing/health"
	"github.com/vietddude/tikwatch/internal/indexing/poller"
	"github.com/vietddude/tikwatch/internal/indexing/resolver"
	"github.com/vietddude/tikwatch/internal/indexing/synth"
	"github.com/vietddude/tikwatch/internal/infra/rpc"
	"github.com/vietddude/tikwatch/internal/infra/rpc/budget"
	"github.com/vietddude/tikwatch/internal/infra/rpc/provider"
	"github.com/vietddude/tikwatch/internal/infra/rpc/routing"
	"github.com/vietddude/tikwatch/internal/infra/source"
	"github.com/vietddude/tikwatch/internal/infra/source/premium"
	"github.com/vietddude/tikwatch/internal/infra/source/public"
	"github.com/vietddude/tikwatch/internal/infra/source/scrape"
	"github.com/vietddude/tikwatch/internal/infra/storage"
	"github.com/vietddude/tikwatch/internal/infra/storage/memory"
	redisclient "github.com/vietddude/tikwatch/internal/infra/storage/redis"
)

// App owns every long-lived component and their lifecycle.
type App struct {
	cfg          *config.AppConfig
	controller   *Controller
	resolver     *resolver.Resolver
	poller       *poller.Poller
	healthMon    *health.Monitor
	healthServer *health.Server
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg *config.AppConfig) (*App, error) {
	mode, err := domain.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	// 1. Network: one limiter and one rotator shared by every source
	rotator, err := routing.NewProxyRotator(cfg.Network.Proxies)
	if err != nil {
		return nil, fmt.Errorf("failed to init proxy rotator: %w", err)
	}
	limiter := budget.NewLimiter(cfg.Network.RateLimit)

	apiTransport := provider.NewHTTPTransport(provider.HTTPOptions{
		Timeout:    cfg.Network.RequestTimeout,
		UserAgent:  cfg.Network.UserAgent,
		TracerName: "tikwatch/api",
	})
	pageTransport := provider.NewHTTPTransport(provider.HTTPOptions{
		Timeout:          cfg.Network.RequestTimeout,
		UserAgent:        cfg.Network.UserAgent,
		CloudflareBypass: cfg.Sources.Scrape.CloudflareBypass,
		TracerName:       "tikwatch/scrape",
	})
	apiClient := rpc.NewClient(apiTransport, limiter, rotator, cfg.Network.ProxyAttempts)
	pageClient := rpc.NewClient(pageTransport, limiter, rotator, cfg.Network.ProxyAttempts)

	// 2. Sources in priority order
	premiumSource := premium.New(premium.Config{
		APIKey:     cfg.Sources.Premium.APIKey,
		Host:       cfg.Sources.Premium.Host,
		BaseURL:    cfg.Sources.Premium.BaseURL,
		DailyQuota: cfg.Sources.Premium.DailyQuota,
	}, apiClient)
	sources := []source.ProfileSource{
		premiumSource,
		scrape.New(cfg.Sources.Scrape.ProfileURL, pageClient),
		public.New(public.Config{
			ProfileEndpoints: cfg.Sources.Public.ProfileEndpoints,
			LiveEndpoints:    cfg.Sources.Public.LiveEndpoints,
			MaxComments:      cfg.Live.MaxComments,
		}, apiClient),
	}

	// 3. Cache
	var cache storage.ProfileCache = memory.NewCache()
	var redisClient *redisclient.Client
	if cfg.Cache.Backend == "redis" {
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, using memory cache", "error", err)
			redisClient = nil
		} else {
			cache = redisClient
		}
	}
	slog.Info("Profile cache ready", "backend", cache.Backend(), "ttl", cfg.Cache.TTL)

	// 4. Resolution
	res := resolver.New(sources, cache, resolver.Options{
		CacheTTL:    cfg.Cache.TTL,
		MaxComments: cfg.Live.MaxComments,
	})
	ctrl := NewController(mode, res, synth.New(), cfg.Live.MaxComments)

	// 5. Health
	healthMon := health.NewMonitor(health.Config{
		Controller:   ctrl,
		Routes:       []health.RouteReporter{apiTransport, pageTransport},
		Sources:      res.Sources(),
		CacheBackend: cache.Backend(),
		Quotas:       map[string]health.QuotaReporter{source.NamePremium: premiumSource},
	})

	var livePoller *poller.Poller
	if cfg.User != "" {
		livePoller = poller.New(poller.Config{
			User:            resolver.CleanHandle(cfg.User),
			Interval:        cfg.Live.PollInterval,
			ErrorRetryDelay: cfg.Live.ErrorRetryDelay,
			MaxErrorRetries: cfg.Live.MaxErrorRetries,
			MaxComments:     cfg.Live.MaxComments,
			Alerts: poller.Thresholds{
				FollowerGain:   cfg.Live.Alerts.FollowerGain,
				LikeMilestone:  cfg.Live.Alerts.LikeMilestone,
				ViewerPeakStep: cfg.Live.Alerts.ViewerPeakStep,
			},
		}, ctrl)
		healthMon.SetLive(livePoller)
	}

	healthServer := health.NewServer(healthMon, cfg.Server.Port)
	registerControlRoutes(healthServer, ctrl)

	return &App{
		cfg:          cfg,
		controller:   ctrl,
		resolver:     res,
		poller:       livePoller,
		healthMon:    healthMon,
		healthServer: healthServer,
		redisClient:  redisClient,
		log:          slog.Default(),
	}, nil
}

// Controller returns the mode controller.
func (a *App) Controller() *Controller {
	return a.controller
}

// Start starts the HTTP surface and, when a user is configured, the poller.
func (a *App) Start(ctx context.Context) error {
	a.log.Info("Starting tikwatch",
		"mode", a.controller.Mode(),
		"sources", a.resolver.Sources(),
		"port", a.cfg.Server.Port,
	)

	go func() {
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	if a.poller != nil {
		go func() {
			if err := a.poller.Start(ctx); err != nil {
				a.log.Error("Live poller failed", "error", err)
			}
		}()
	}
	return nil
}

// Stop stops the poller and the HTTP surface and releases connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping tikwatch...")

	if a.poller != nil {
		a.poller.Stop()
	}
	a.Close()
	return a.healthServer.Stop(ctx)
}

// Close releases external connections. One-shot commands call it instead of
// Stop.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
}
