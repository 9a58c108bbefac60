package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/markets"
	"github.com/mselser95/polymarket-paper/internal/news"
	"github.com/mselser95/polymarket-paper/internal/subscription"
	"github.com/mselser95/polymarket-paper/pkg/config"
	"github.com/mselser95/polymarket-paper/pkg/healthprobe"
)

// Server provides the JSON API plus metrics and health endpoints.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration. News is optional.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	AppConfig     *config.Config
	Provider      markets.Provider
	Dispatcher    subscription.Dispatcher
	News          news.Source
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// NewRouter builds the route tree. Split out so tests can drive it with
// httptest without binding a port.
func NewRouter(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	api := NewAPIHandler(cfg)

	r.Route("/api", func(r chi.Router) {
		// The stream route stays outside the timeout middleware.
		r.Get("/markets/{id}/ws", api.HandleMarketStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/markets", api.HandleMarkets)
			r.Get("/markets/{id}", api.HandleMarket)
			r.Get("/markets/{id}/history", api.HandleHistory)
			r.Get("/markets/{id}/stats", api.HandleStats)
			r.Post("/portfolio/metrics", api.HandlePortfolioMetrics)
			r.Post("/pnl", api.HandlePnL)
			r.Post("/trades/preview", api.HandleTradePreview)
			r.Get("/config", api.HandleConfig)
			if cfg.News != nil {
				r.Get("/news", api.HandleNews)
			}
		})
	})

	return r
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
