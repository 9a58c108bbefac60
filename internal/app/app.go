package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/circuitbreaker"
	"github.com/mselser95/polymarket-paper/internal/markets"
	"github.com/mselser95/polymarket-paper/internal/news"
	"github.com/mselser95/polymarket-paper/internal/storage"
	"github.com/mselser95/polymarket-paper/internal/subscription"
	"github.com/mselser95/polymarket-paper/pkg/cache"
	"github.com/mselser95/polymarket-paper/pkg/config"
	"github.com/mselser95/polymarket-paper/pkg/healthprobe"
	"github.com/mselser95/polymarket-paper/pkg/httpserver"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	breaker       *circuitbreaker.Breaker
	marketCache   cache.Cache
	provider      markets.Provider
	dispatcher    subscription.Dispatcher
	news          news.Source
	storage       storage.Storage
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// Options holds application options.
type Options struct {
	// DisableStorage skips the update sink. One-shot CLI commands set it
	// so they never connect to Postgres or Redis.
	DisableStorage bool
}

// Provider returns the market data provider chosen at startup.
func (a *App) Provider() markets.Provider {
	return a.provider
}

// Dispatcher returns the update dispatcher.
func (a *App) Dispatcher() subscription.Dispatcher {
	return a.dispatcher
}

// News returns the news source, or nil when the news feature is off.
func (a *App) News() news.Source {
	return a.news
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}
