package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestReconnect(cfg ReconnectConfig) *ReconnectManager {
	rm := NewReconnectManager(cfg, zap.NewNop())
	rm.jitter = func() float64 { return 0 }
	return rm
}

func TestReconnect_BackoffGrowsAndCaps(t *testing.T) {
	rm := newTestReconnect(ReconnectConfig{
		InitialDelay:      time.Millisecond,
		MaxDelay:          4 * time.Millisecond,
		BackoffMultiplier: 2,
		MaxAttempts:       5,
	})

	fail := errors.New("dial refused")
	err := rm.Reconnect(context.Background(), func(context.Context) error { return fail })

	if !errors.Is(err, fail) {
		t.Fatalf("expected last error to be wrapped, got %v", err)
	}
	if got := rm.CurrentBackoff(); got != 4*time.Millisecond {
		t.Errorf("expected backoff capped at 4ms, got %v", got)
	}
}

func TestReconnect_SuccessResets(t *testing.T) {
	rm := newTestReconnect(ReconnectConfig{
		InitialDelay:      time.Millisecond,
		MaxDelay:          time.Second,
		BackoffMultiplier: 3,
	})

	calls := 0
	err := rm.Reconnect(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if got := rm.CurrentBackoff(); got != time.Millisecond {
		t.Errorf("expected backoff reset to 1ms, got %v", got)
	}
}

func TestReconnect_ContextCancel(t *testing.T) {
	rm := newTestReconnect(ReconnectConfig{InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffMultiplier: 2})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := rm.Reconnect(ctx, func(context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewReconnectManager_Defaults(t *testing.T) {
	rm := NewReconnectManager(ReconnectConfig{}, zap.NewNop())
	if rm.config.InitialDelay != time.Second || rm.config.MaxDelay != 30*time.Second || rm.config.BackoffMultiplier != 2 {
		t.Errorf("unexpected defaults %+v", rm.config)
	}
}
