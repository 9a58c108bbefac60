package cache

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *RistrettoCache {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	c, err := NewRistrettoCache(&RistrettoConfig{
		Name:        "test",
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestRistrettoCache(t *testing.T) {
	c := newTestCache(t)

	t.Run("set-and-get", func(t *testing.T) {
		if !c.Set("markets", "value", time.Hour) {
			t.Fatal("expected Set to succeed")
		}
		c.Wait()

		got, found := c.Get("markets")
		if !found {
			t.Fatal("expected key to be found")
		}
		if got != "value" {
			t.Errorf("expected %q, got %v", "value", got)
		}
	})

	t.Run("get-missing-key", func(t *testing.T) {
		if _, found := c.Get("nonexistent"); found {
			t.Error("expected key to not be found")
		}
	})

	t.Run("delete", func(t *testing.T) {
		c.Set("delete-me", 1, time.Hour)
		c.Wait()

		c.Delete("delete-me")

		if _, found := c.Get("delete-me"); found {
			t.Error("expected key to be deleted")
		}
	})

	t.Run("ttl-expiration", func(t *testing.T) {
		c.Set("short", "v", 100*time.Millisecond)
		c.Wait()

		time.Sleep(1500 * time.Millisecond)

		if _, found := c.Get("short"); found {
			t.Error("expected key to be expired after TTL")
		}
	})

	t.Run("clear", func(t *testing.T) {
		c.Set("a", 1, time.Hour)
		c.Set("b", 2, time.Hour)
		c.Wait()

		c.Clear()

		_, foundA := c.Get("a")
		_, foundB := c.Get("b")
		if foundA || foundB {
			t.Error("expected cache to be empty after Clear")
		}
	})
}

func TestNewRistrettoCache_NilLogger(t *testing.T) {
	_, err := NewRistrettoCache(&RistrettoConfig{NumCounters: 10, MaxCost: 10, BufferItems: 64})
	if err == nil {
		t.Error("expected error for nil logger")
	}
}

func TestDefaultRistrettoConfig(t *testing.T) {
	cfg := DefaultRistrettoConfig("markets", zap.NewNop())
	if cfg.Name != "markets" || cfg.MaxCost <= 0 || cfg.NumCounters <= cfg.MaxCost {
		t.Errorf("unexpected default config %+v", cfg)
	}
}
