// Package circuitbreaker guards outbound calls to the live market API.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// Breaker trips after a run of consecutive upstream failures and rejects
// calls until Timeout has elapsed. Client errors (4xx), rate-limit
// rejections and caller cancellation do not count as failures.
type Breaker struct {
	name   string
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// Config holds circuit breaker configuration.
type Config struct {
	Name        string
	MaxFailures uint32
	Timeout     time.Duration
	Logger      *zap.Logger
}

// New creates a new circuit breaker with the given configuration.
func New(cfg *Config) (*Breaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if cfg.MaxFailures == 0 {
		return nil, fmt.Errorf("max failures must be positive")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}

	b := &Breaker{
		name:   cfg.Name,
		logger: cfg.Logger,
	}

	maxFailures := cfg.MaxFailures
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful:  isSuccessful,
		OnStateChange: b.onStateChange,
	})

	BreakerState.WithLabelValues(cfg.Name).Set(stateValue(gobreaker.StateClosed))

	return b, nil
}

// Execute runs fn through the breaker. While the breaker is open fn is
// not called and an UpstreamError with status 503 is returned.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		BreakerRejectedTotal.WithLabelValues(b.name).Inc()
		return &types.UpstreamError{
			Status: http.StatusServiceUnavailable,
			Err:    fmt.Errorf("circuit %s: %w", b.name, err),
		}
	}
	return err
}

// State returns the breaker state name: "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func (b *Breaker) onStateChange(name string, from, to gobreaker.State) {
	BreakerState.WithLabelValues(name).Set(stateValue(to))
	BreakerStateChanges.WithLabelValues(name, to.String()).Inc()

	if to == gobreaker.StateOpen {
		b.logger.Warn("circuit-breaker-opened",
			zap.String("name", name),
			zap.String("from", from.String()))
		return
	}

	b.logger.Info("circuit-breaker-state-changed",
		zap.String("name", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()))
}

func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, types.ErrRateLimitExceeded) || errors.Is(err, types.ErrValidation) {
		return true
	}
	var upstream *types.UpstreamError
	if errors.As(err, &upstream) && upstream.IsClientError() {
		return true
	}
	return false
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
