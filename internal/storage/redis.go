package storage

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// DefaultRedisHistoryLength caps the per-market update list.
const DefaultRedisHistoryLength = 500

const (
	redisChannelPrefix = "polymarket-paper:updates:"
	redisListPrefix    = "polymarket-paper:history:"
)

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	HistoryLength int64
	Logger        *zap.Logger
}

// RedisStorage publishes each update on a per-market channel and keeps
// the most recent ones in a capped list.
type RedisStorage struct {
	client        *redis.Client
	historyLength int64
	logger        *zap.Logger
}

// NewRedisStorage connects and pings Redis.
func NewRedisStorage(ctx context.Context, cfg *RedisConfig) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	cfg.Logger.Info("redis-storage-connected",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB))

	return newRedisStorage(client, cfg.HistoryLength, cfg.Logger), nil
}

func newRedisStorage(client *redis.Client, historyLength int64, logger *zap.Logger) *RedisStorage {
	if historyLength <= 0 {
		historyLength = DefaultRedisHistoryLength
	}
	return &RedisStorage{
		client:        client,
		historyLength: historyLength,
		logger:        logger,
	}
}

// ChannelFor returns the pub/sub channel for marketID.
func ChannelFor(marketID string) string {
	return redisChannelPrefix + marketID
}

// HistoryKeyFor returns the list key for marketID.
func HistoryKeyFor(marketID string) string {
	return redisListPrefix + marketID
}

func encodeUpdate(update *types.MarketUpdate) (string, error) {
	payload, err := json.Marshal(update)
	if err != nil {
		return "", fmt.Errorf("marshal update: %w", err)
	}
	return string(payload), nil
}

// StoreUpdate publishes the update and pushes it onto the market's list.
func (r *RedisStorage) StoreUpdate(ctx context.Context, update *types.MarketUpdate) error {
	payload, err := encodeUpdate(update)
	if err != nil {
		return err
	}

	err = r.client.Publish(ctx, ChannelFor(update.MarketID), payload).Err()
	if err != nil {
		StoreErrorsTotal.WithLabelValues("redis").Inc()
		return fmt.Errorf("publish update: %w", err)
	}

	key := HistoryKeyFor(update.MarketID)

	err = r.client.LPush(ctx, key, payload).Err()
	if err != nil {
		StoreErrorsTotal.WithLabelValues("redis").Inc()
		return fmt.Errorf("push update: %w", err)
	}

	err = r.client.LTrim(ctx, key, 0, r.historyLength-1).Err()
	if err != nil {
		StoreErrorsTotal.WithLabelValues("redis").Inc()
		return fmt.Errorf("trim history: %w", err)
	}

	UpdatesStoredTotal.WithLabelValues("redis").Inc()
	r.logger.Debug("update-stored",
		zap.String("market-id", update.MarketID),
		zap.String("key", key))

	return nil
}

// RecentUpdates returns up to limit stored updates for marketID, newest
// first. Entries that fail to decode are skipped.
func (r *RedisStorage) RecentUpdates(ctx context.Context, marketID string, limit int64) ([]types.MarketUpdate, error) {
	if limit <= 0 {
		return []types.MarketUpdate{}, nil
	}

	raw, err := r.client.LRange(ctx, HistoryKeyFor(marketID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	updates := make([]types.MarketUpdate, 0, len(raw))
	for _, item := range raw {
		var u types.MarketUpdate
		err = json.Unmarshal([]byte(item), &u)
		if err != nil {
			r.logger.Warn("skipping-undecodable-update",
				zap.String("market-id", marketID),
				zap.Error(err))
			continue
		}
		updates = append(updates, u)
	}

	return updates, nil
}

// Close closes the Redis client.
func (r *RedisStorage) Close() error {
	r.logger.Info("closing-redis-storage")
	return r.client.Close()
}
