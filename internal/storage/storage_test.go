package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/config"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

func testUpdate() *types.MarketUpdate {
	return &types.MarketUpdate{
		MarketID:  "3",
		Odds:      67.5,
		Change24h: -1.25,
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestConsoleStorage_StoreUpdate(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	var buf bytes.Buffer
	storage.out = &buf

	err := storage.StoreUpdate(context.Background(), testUpdate())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	output := buf.String()
	for _, want := range []string{"2025-03-01 12:00:00", "market 3", "67.50%", "▼ -1.25"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}

func TestConsoleStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	err := storage.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}
}

func newMockPostgres(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	storage := newPostgresStorage(db, logger)
	storage.newID = func() uuid.UUID { return uuid.MustParse("6f1c3c38-7d42-4b5a-9a8e-0d3f1b2c4d5e") }
	return storage, mock
}

func TestPostgresStorage_StoreUpdate(t *testing.T) {
	storage, mock := newMockPostgres(t)
	defer storage.db.Close()

	update := testUpdate()

	mock.ExpectExec("INSERT INTO market_updates").
		WithArgs(
			"6f1c3c38-7d42-4b5a-9a8e-0d3f1b2c4d5e",
			update.MarketID,
			update.Odds,
			update.Change24h,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := storage.StoreUpdate(context.Background(), update)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_StoreUpdate_Error(t *testing.T) {
	storage, mock := newMockPostgres(t)
	defer storage.db.Close()

	mock.ExpectExec("INSERT INTO market_updates").
		WillReturnError(sqlmock.ErrCancelled)

	err := storage.StoreUpdate(context.Background(), testUpdate())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, sqlmock.ErrCancelled) {
		t.Errorf("expected wrapped ErrCancelled, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_EnsureSchema(t *testing.T) {
	storage, mock := newMockPostgres(t)
	defer storage.db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS market_updates").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := storage.EnsureSchema(context.Background())
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_RecentUpdates(t *testing.T) {
	storage, mock := newMockPostgres(t)
	defer storage.db.Close()

	newer := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"market_id", "odds", "change_24h", "recorded_at"}).
		AddRow("3", 70.0, 2.0, newer).
		AddRow("3", 68.0, 0.5, older)

	mock.ExpectQuery("SELECT market_id, odds, change_24h, recorded_at").
		WithArgs("3", 2).
		WillReturnRows(rows)

	updates, err := storage.RecentUpdates(context.Background(), "3", 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if updates[0].Odds != 70.0 || !updates[0].Timestamp.Equal(newer) {
		t.Errorf("unexpected first update: %+v", updates[0])
	}
	if updates[1].Change24h != 0.5 {
		t.Errorf("expected change 0.5, got %v", updates[1].Change24h)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_Close(t *testing.T) {
	storage, mock := newMockPostgres(t)

	mock.ExpectClose()

	err := storage.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRedisStorage_StoreUpdate(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	client, mock := redismock.NewClientMock()
	storage := newRedisStorage(client, 100, logger)

	update := testUpdate()
	payload, err := encodeUpdate(update)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	mock.ExpectPublish("polymarket-paper:updates:3", payload).SetVal(1)
	mock.ExpectLPush("polymarket-paper:history:3", payload).SetVal(1)
	mock.ExpectLTrim("polymarket-paper:history:3", 0, 99).SetVal("OK")

	err = storage.StoreUpdate(context.Background(), update)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRedisStorage_StoreUpdate_PublishError(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	client, mock := redismock.NewClientMock()
	storage := newRedisStorage(client, 0, logger)

	update := testUpdate()
	payload, _ := encodeUpdate(update)

	mock.ExpectPublish(ChannelFor("3"), payload).SetErr(errors.New("connection reset"))

	err := storage.StoreUpdate(context.Background(), update)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "publish update") {
		t.Errorf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRedisStorage_DefaultHistoryLength(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	client, _ := redismock.NewClientMock()
	storage := newRedisStorage(client, 0, logger)

	if storage.historyLength != DefaultRedisHistoryLength {
		t.Errorf("expected %d, got %d", DefaultRedisHistoryLength, storage.historyLength)
	}
}

func TestRedisStorage_RecentUpdates(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	client, mock := redismock.NewClientMock()
	storage := newRedisStorage(client, 100, logger)

	payload, _ := encodeUpdate(testUpdate())
	mock.ExpectLRange(HistoryKeyFor("3"), 0, 4).SetVal([]string{payload, "garbage"})

	updates, err := storage.RecentUpdates(context.Background(), "3", 5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(updates) != 1 {
		t.Fatalf("expected 1 decodable update, got %d", len(updates))
	}
	if updates[0].Odds != 67.5 || updates[0].MarketID != "3" {
		t.Errorf("unexpected update: %+v", updates[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNew_Console(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	storage, err := New(context.Background(), &config.Config{StorageMode: "console"}, logger)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := storage.(*ConsoleStorage); !ok {
		t.Errorf("expected *ConsoleStorage, got %T", storage)
	}
}

func TestNew_UnknownMode(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	_, err := New(context.Background(), &config.Config{StorageMode: "s3"}, logger)
	if err == nil {
		t.Error("expected error for unknown mode")
	}
}
