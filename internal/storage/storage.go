// Package storage persists market updates delivered to subscribers.
// Portfolio state is never stored.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/config"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

// Storage is the interface for recording delivered market updates.
type Storage interface {
	// StoreUpdate records a single update.
	StoreUpdate(ctx context.Context, update *types.MarketUpdate) error

	// Close closes the storage connection.
	Close() error
}

// New builds the storage selected by cfg.StorageMode.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Storage, error) {
	switch cfg.StorageMode {
	case "console", "":
		return NewConsoleStorage(logger), nil
	case "postgres":
		return NewPostgresStorage(ctx, &PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	case "redis":
		return NewRedisStorage(ctx, &RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.StorageMode)
	}
}
