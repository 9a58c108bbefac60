// Package markets provides market data from either the built-in simulator
// or the live market API behind a single Provider interface.
package markets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/gamma"
	"github.com/mselser95/polymarket-paper/internal/simulator"
	"github.com/mselser95/polymarket-paper/pkg/cache"
	"github.com/mselser95/polymarket-paper/pkg/config"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

// Provider is the market data source. Every call returns freshly
// allocated values that the caller owns.
type Provider interface {
	Mode() config.Mode
	GetMarkets(ctx context.Context) ([]types.Market, error)
	GetMarketDetails(ctx context.Context, marketID string) (*types.Market, error)
	GetMarketHistory(ctx context.Context, marketID string, timeframe string) ([]types.HistoryPoint, error)
}

// Transport fetches raw market data from the live API.
type Transport interface {
	FetchMarkets(ctx context.Context) ([]gamma.Market, error)
	FetchMarketDetails(ctx context.Context, marketID string) (*gamma.Market, error)
	FetchMarketHistory(ctx context.Context, marketID string, timeframe string) ([]gamma.HistoryPoint, error)
}

// Limiter admits or rejects a call against a named resource.
type Limiter interface {
	CheckLimit(resource string, maxCalls int, window time.Duration) error
}

// Deps are the collaborators NewProvider wires in. Transport and Limiter
// are required in live mode; Simulator and Cache are optional.
type Deps struct {
	Simulator *simulator.Simulator
	Transport Transport
	Limiter   Limiter
	Cache     cache.Cache
	Logger    *zap.Logger
}

// NewProvider selects the variant for cfg.Mode. The choice is fixed for
// the lifetime of the returned provider; there is no fallback from live
// to simulated on failure. When the market_cache feature is enabled and
// deps.Cache is set, the provider is wrapped in a CachedProvider.
func NewProvider(cfg *config.Config, deps Deps) (Provider, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	var provider Provider
	switch cfg.Mode {
	case config.ModeSimulated:
		sim := deps.Simulator
		if sim == nil {
			sim = simulator.New(nil)
		}
		provider = NewSimulated(sim)

	case config.ModeLive:
		if deps.Transport == nil {
			return nil, fmt.Errorf("live mode requires a transport")
		}
		if deps.Limiter == nil {
			return nil, fmt.Errorf("live mode requires a rate limiter")
		}
		provider = NewLive(&LiveConfig{
			Transport: deps.Transport,
			Limiter:   deps.Limiter,
			MaxCalls:  cfg.RateLimitMaxCalls,
			Window:    cfg.RateLimitWindow,
			Logger:    deps.Logger,
		})

	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}

	if cfg.IsFeatureEnabled(config.FeatureMarketCache) && deps.Cache != nil {
		deps.Logger.Info("market-cache-enabled",
			zap.Duration("ttl", cfg.MarketCacheTTL))
		provider = NewCachedProvider(provider, deps.Cache, cfg.MarketCacheTTL)
	}

	deps.Logger.Info("market-provider-created",
		zap.String("mode", string(provider.Mode())))

	return provider, nil
}
