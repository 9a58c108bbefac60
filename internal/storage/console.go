package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// ConsoleStorage implements Storage by printing one line per update.
type ConsoleStorage struct {
	out    io.Writer
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage writing to stdout.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		out:    os.Stdout,
		logger: logger,
	}
}

// StoreUpdate prints the update.
func (c *ConsoleStorage) StoreUpdate(ctx context.Context, update *types.MarketUpdate) error {
	direction := "▲"
	if update.Change24h < 0 {
		direction = "▼"
	}

	_, err := fmt.Fprintf(c.out, "%s  market %-8s  odds %6.2f%%  %s %+.2f\n",
		update.Timestamp.Format("2006-01-02 15:04:05"),
		update.MarketID,
		update.Odds,
		direction,
		update.Change24h)
	if err != nil {
		return fmt.Errorf("write update: %w", err)
	}

	UpdatesStoredTotal.WithLabelValues("console").Inc()
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
