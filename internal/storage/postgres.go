package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// Schema creates the table StoreUpdate writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS market_updates (
	id          UUID PRIMARY KEY,
	market_id   TEXT NOT NULL,
	odds        DOUBLE PRECISION NOT NULL,
	change_24h  DOUBLE PRECISION NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS market_updates_market_time ON market_updates (market_id, recorded_at DESC);
`

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
	newID  func() uuid.UUID
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage connects, pings and ensures the schema exists.
func NewPostgresStorage(ctx context.Context, cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := newPostgresStorage(db, cfg.Logger)

	err = p.EnsureSchema(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return p, nil
}

func newPostgresStorage(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:     db,
		logger: logger,
		newID:  uuid.New,
	}
}

// EnsureSchema creates the updates table if missing.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// StoreUpdate inserts one row per update.
func (p *PostgresStorage) StoreUpdate(ctx context.Context, update *types.MarketUpdate) error {
	query := `
		INSERT INTO market_updates (id, market_id, odds, change_24h, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	id := p.newID()
	_, err := p.db.ExecContext(ctx, query,
		id.String(),
		update.MarketID,
		update.Odds,
		update.Change24h,
		update.Timestamp,
	)
	if err != nil {
		StoreErrorsTotal.WithLabelValues("postgres").Inc()
		return fmt.Errorf("insert update: %w", err)
	}

	UpdatesStoredTotal.WithLabelValues("postgres").Inc()
	p.logger.Debug("update-stored",
		zap.String("update-id", id.String()),
		zap.String("market-id", update.MarketID))

	return nil
}

// RecentUpdates returns up to limit updates for marketID, newest first.
func (p *PostgresStorage) RecentUpdates(ctx context.Context, marketID string, limit int) ([]types.MarketUpdate, error) {
	query := `
		SELECT market_id, odds, change_24h, recorded_at
		FROM market_updates
		WHERE market_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := p.db.QueryContext(ctx, query, marketID, limit)
	if err != nil {
		return nil, fmt.Errorf("query updates: %w", err)
	}
	defer rows.Close()

	updates := make([]types.MarketUpdate, 0, limit)
	for rows.Next() {
		var (
			u  types.MarketUpdate
			ts time.Time
		)
		err = rows.Scan(&u.MarketID, &u.Odds, &u.Change24h, &ts)
		if err != nil {
			return nil, fmt.Errorf("scan update: %w", err)
		}
		u.Timestamp = ts
		updates = append(updates, u)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate updates: %w", err)
	}

	return updates, nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
