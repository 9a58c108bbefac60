package websocket

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReconnectConfig holds the configuration for exponential backoff reconnection.
type ReconnectConfig struct {
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterPercent     float64 // 0.2 = up to +20%
	MaxAttempts       int     // 0 = retry until the context ends
}

// ReconnectManager retries a connect function with exponential backoff
// and jitter.
type ReconnectManager struct {
	config         ReconnectConfig
	logger         *zap.Logger
	mu             sync.Mutex
	currentBackoff time.Duration
	jitter         func() float64
}

// NewReconnectManager creates a reconnection manager. Zero delays and
// multipliers fall back to 1s initial, 30s max and x2.
func NewReconnectManager(cfg ReconnectConfig, logger *zap.Logger) *ReconnectManager {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = 30 * time.Second
		if cfg.MaxDelay < cfg.InitialDelay {
			cfg.MaxDelay = cfg.InitialDelay
		}
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 2
	}

	return &ReconnectManager{
		config:         cfg,
		logger:         logger,
		currentBackoff: cfg.InitialDelay,
		jitter:         rand.Float64,
	}
}

// errMaxAttempts is returned when MaxAttempts is exhausted.
type errMaxAttempts struct {
	attempts int
	last     error
}

func (e *errMaxAttempts) Error() string {
	return fmt.Sprintf("reconnect gave up after %d attempts: %v", e.attempts, e.last)
}

func (e *errMaxAttempts) Unwrap() error { return e.last }

// Reconnect calls connectFunc until it succeeds, the context ends or
// MaxAttempts is reached. Backoff is reset on success.
func (rm *ReconnectManager) Reconnect(ctx context.Context, connectFunc func(context.Context) error) error {
	tries := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		backoff := rm.nextBackoff()

		rm.logger.Info("attempting-reconnection",
			zap.Duration("backoff", backoff),
			zap.Int("attempt", tries+1))

		ReconnectAttemptsTotal.Inc()

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}

		tries++
		err := connectFunc(ctx)
		if err == nil {
			rm.Reset()
			rm.logger.Info("reconnection-successful", zap.Int("attempts", tries))
			return nil
		}

		rm.logger.Warn("reconnection-failed", zap.Error(err))
		ReconnectFailuresTotal.Inc()

		if rm.config.MaxAttempts > 0 && tries >= rm.config.MaxAttempts {
			return &errMaxAttempts{attempts: tries, last: err}
		}

		rm.incrementBackoff()
	}
}

// Reset resets the backoff to the initial delay.
func (rm *ReconnectManager) Reset() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.currentBackoff = rm.config.InitialDelay
}

// CurrentBackoff returns the un-jittered delay for the next attempt.
func (rm *ReconnectManager) CurrentBackoff() time.Duration {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.currentBackoff
}

func (rm *ReconnectManager) nextBackoff() time.Duration {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	jitter := rm.jitter() * rm.config.JitterPercent
	return time.Duration(float64(rm.currentBackoff) * (1.0 + jitter))
}

func (rm *ReconnectManager) incrementBackoff() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	next := time.Duration(float64(rm.currentBackoff) * rm.config.BackoffMultiplier)
	if next > rm.config.MaxDelay {
		next = rm.config.MaxDelay
	}
	rm.currentBackoff = next
}
