package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/circuitbreaker"
	"github.com/mselser95/polymarket-paper/internal/gamma"
	"github.com/mselser95/polymarket-paper/internal/markets"
	"github.com/mselser95/polymarket-paper/internal/news"
	"github.com/mselser95/polymarket-paper/internal/ratelimit"
	"github.com/mselser95/polymarket-paper/internal/simulator"
	"github.com/mselser95/polymarket-paper/internal/storage"
	"github.com/mselser95/polymarket-paper/internal/subscription"
	"github.com/mselser95/polymarket-paper/pkg/cache"
	"github.com/mselser95/polymarket-paper/pkg/config"
	"github.com/mselser95/polymarket-paper/pkg/healthprobe"
	"github.com/mselser95/polymarket-paper/pkg/httpserver"
	"github.com/mselser95/polymarket-paper/pkg/websocket"
)

// New creates a new application instance. The data-source mode is read
// from cfg once here and never changes afterwards.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker(cfg)
	sim := simulator.New(nil)
	limiter := ratelimit.New()

	marketCache, err := setupCache(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	var breaker *circuitbreaker.Breaker
	if cfg.Mode == config.ModeLive {
		breaker, err = setupBreaker(cfg, logger, "polymarket")
		if err != nil {
			cancel()
			return nil, fmt.Errorf("setup circuit breaker: %w", err)
		}
		healthChecker.AddCheck("polymarket-breaker", func(context.Context) error {
			if breaker.State() == "open" {
				return errors.New("circuit open")
			}
			return nil
		})
	}

	provider, err := setupProvider(cfg, logger, sim, limiter, breaker, marketCache)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup provider: %w", err)
	}

	newsSource, err := setupNews(cfg, logger, limiter)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup news: %w", err)
	}

	var sink storage.Storage
	if !opts.DisableStorage {
		sink, err = storage.New(ctx, cfg, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("setup storage: %w", err)
		}
	}

	dispatcher := setupDispatcher(cfg, logger, sim, sink)

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		AppConfig:     cfg,
		Provider:      provider,
		Dispatcher:    dispatcher,
		News:          newsSource,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		breaker:       breaker,
		marketCache:   marketCache,
		provider:      provider,
		dispatcher:    dispatcher,
		news:          newsSource,
		storage:       sink,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupHealthChecker(cfg *config.Config) *healthprobe.HealthChecker {
	return healthprobe.New(string(cfg.Mode))
}

// setupCache returns nil when the market cache feature is off.
func setupCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	if !cfg.IsFeatureEnabled(config.FeatureMarketCache) {
		return nil, nil
	}
	return cache.NewRistrettoCache(cache.DefaultRistrettoConfig("markets", logger))
}

func setupBreaker(cfg *config.Config, logger *zap.Logger, name string) (*circuitbreaker.Breaker, error) {
	return circuitbreaker.New(&circuitbreaker.Config{
		Name:        name,
		MaxFailures: cfg.BreakerMaxFailures,
		Timeout:     cfg.BreakerTimeout,
		Logger:      logger,
	})
}

func setupProvider(
	cfg *config.Config,
	logger *zap.Logger,
	sim *simulator.Simulator,
	limiter *ratelimit.Limiter,
	breaker *circuitbreaker.Breaker,
	marketCache cache.Cache,
) (markets.Provider, error) {
	deps := markets.Deps{
		Simulator: sim,
		Limiter:   limiter,
		Cache:     marketCache,
		Logger:    logger,
	}

	if cfg.Mode == config.ModeLive {
		deps.Transport = gamma.NewClient(&gamma.Config{
			BaseURL: cfg.PolymarketAPIURL,
			APIKey:  cfg.PolymarketAPIKey,
			Timeout: cfg.HTTPTimeout,
			Breaker: breaker,
			Logger:  logger,
		})
	}

	return markets.NewProvider(cfg, deps)
}

// setupNews returns nil when the news feature is off, or when live mode
// has no API key. The live source gets its own breaker.
func setupNews(cfg *config.Config, logger *zap.Logger, limiter *ratelimit.Limiter) (news.Source, error) {
	if !cfg.IsFeatureEnabled(config.FeatureNews) {
		return nil, nil
	}

	if cfg.Mode == config.ModeSimulated {
		return news.NewSimulated(), nil
	}

	if cfg.NewsAPIKey == "" {
		logger.Warn("news-disabled-no-api-key")
		return nil, nil
	}

	breaker, err := setupBreaker(cfg, logger, news.RateLimitResource)
	if err != nil {
		return nil, err
	}

	return news.NewLive(&news.LiveConfig{
		BaseURL:  cfg.NewsAPIURL,
		APIKey:   cfg.NewsAPIKey,
		Timeout:  cfg.HTTPTimeout,
		Breaker:  breaker,
		Limiter:  limiter,
		MaxCalls: cfg.RateLimitMaxCalls,
		Window:   cfg.RateLimitWindow,
		Logger:   logger,
	}), nil
}

func setupDispatcher(
	cfg *config.Config,
	logger *zap.Logger,
	sim *simulator.Simulator,
	sink storage.Storage,
) subscription.Dispatcher {
	var dispatcher subscription.Dispatcher
	if cfg.Mode == config.ModeLive {
		dispatcher = subscription.NewLive(&subscription.LiveConfig{
			Open:   newStreamOpener(cfg, logger),
			Logger: logger,
		})
	} else {
		dispatcher = subscription.NewSimulated(sim, cfg.SimUpdateInterval, logger)
	}

	if sink != nil {
		dispatcher = subscription.NewRecording(dispatcher, sink, logger)
	}

	return dispatcher
}

// newStreamOpener dials a fresh websocket manager for each stream the
// live dispatcher opens.
func newStreamOpener(cfg *config.Config, logger *zap.Logger) subscription.StreamOpener {
	return func(ctx context.Context) (subscription.Stream, error) {
		manager := websocket.New(websocket.Config{
			URL:                   cfg.PolymarketWSURL,
			DialTimeout:           cfg.WSDialTimeout,
			PingInterval:          cfg.WSPingInterval,
			ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
			ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
			ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
			MessageBufferSize:     cfg.WSMessageBufferSize,
			Logger:                logger,
		})

		err := startStream(manager)
		if err != nil {
			return nil, err
		}
		return manager, nil
	}
}

type startCloser interface {
	Start() error
	Close() error
}

// startStream starts s, closing it again when the start fails so its
// background context is released.
func startStream(s startCloser) error {
	err := s.Start()
	if err != nil {
		_ = s.Close()
		return fmt.Errorf("start stream: %w", err)
	}
	return nil
}
