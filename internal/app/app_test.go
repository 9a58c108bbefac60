package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/subscription"
	"github.com/mselser95/polymarket-paper/internal/testutil"
	"github.com/mselser95/polymarket-paper/pkg/config"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

func baseConfig(mode config.Mode) *config.Config {
	return &config.Config{
		Mode:               mode,
		LogLevel:           "info",
		HTTPPort:           "0",
		HTTPTimeout:        2 * time.Second,
		RateLimitMaxCalls:  100,
		RateLimitWindow:    time.Minute,
		BreakerMaxFailures: 3,
		BreakerTimeout:     time.Second,
		SimUpdateInterval:  20 * time.Millisecond,
		InitialBalance:     10000,
		MaxPositionSize:    0.2,
		MarketCacheTTL:     time.Second,
		StorageMode:        "console",
		Features:           map[string]bool{},
	}
}

func TestNew_Simulated(t *testing.T) {
	cfg := baseConfig(config.ModeSimulated)
	cfg.Features[config.FeatureNews] = true

	a, err := New(cfg, zap.NewNop(), &Options{DisableStorage: true})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, config.ModeSimulated, a.Provider().Mode())
	assert.NotNil(t, a.News())
	assert.Nil(t, a.breaker)

	list, err := a.Provider().GetMarkets(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 8)

	_, ok := a.Dispatcher().(*subscription.Simulated)
	assert.True(t, ok, "storage disabled means no recording wrapper")
}

func TestNew_SimulatedRecordsUpdates(t *testing.T) {
	cfg := baseConfig(config.ModeSimulated)

	a, err := New(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Dispatcher().(*subscription.Recording)
	require.True(t, ok)

	received := make(chan types.MarketUpdate, 1)
	sub, err := a.Dispatcher().Subscribe("1", func(u types.MarketUpdate) {
		select {
		case received <- u:
		default:
		}
	})
	require.NoError(t, err)
	defer sub.Cancel()

	select {
	case u := <-received:
		assert.Equal(t, "1", u.MarketID)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
}

func TestNew_LiveUsesTransport(t *testing.T) {
	api := testutil.NewMockGammaAPI(nil)
	defer api.Close()
	api.AddMarket(testutil.CreateTestMarket("m-1", "Will it rain?", "sports", 0.42))

	cfg := baseConfig(config.ModeLive)
	cfg.PolymarketAPIURL = api.URL
	cfg.PolymarketWSURL = "ws://127.0.0.1:1/ws"
	cfg.Features[config.FeatureMarketCache] = true

	a, err := New(cfg, zap.NewNop(), &Options{DisableStorage: true})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, config.ModeLive, a.Provider().Mode())
	assert.NotNil(t, a.breaker)
	assert.NotNil(t, a.marketCache)
	assert.Nil(t, a.News(), "news flag is off")

	list, err := a.Provider().GetMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "m-1", list[0].ID)
	assert.Equal(t, "Sports", list[0].Category)
	assert.InDelta(t, 42.0, list[0].Odds, 1e-9)

	_, err = a.Provider().GetMarketDetails(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestNew_LiveUpstreamFailureIsNotMasked(t *testing.T) {
	api := testutil.NewMockGammaAPI(nil)
	defer api.Close()
	api.FailWith(http.StatusInternalServerError)

	cfg := baseConfig(config.ModeLive)
	cfg.PolymarketAPIURL = api.URL
	cfg.PolymarketWSURL = "ws://127.0.0.1:1/ws"

	a, err := New(cfg, zap.NewNop(), &Options{DisableStorage: true})
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Provider().GetMarkets(context.Background())
	assert.ErrorIs(t, err, types.ErrUpstream)
}

func TestNew_LiveStreamOpenFailure(t *testing.T) {
	cfg := baseConfig(config.ModeLive)
	cfg.PolymarketAPIURL = "http://127.0.0.1:1"
	cfg.PolymarketWSURL = "ws://127.0.0.1:1/ws"
	cfg.WSDialTimeout = 200 * time.Millisecond

	a, err := New(cfg, zap.NewNop(), &Options{DisableStorage: true})
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Dispatcher().Subscribe("m-1", func(types.MarketUpdate) {})
	assert.Error(t, err)
}

type fakeStarter struct {
	startErr error
	closes   int
}

func (f *fakeStarter) Start() error { return f.startErr }

func (f *fakeStarter) Close() error {
	f.closes++
	return nil
}

func TestStartStream_ClosesOnFailure(t *testing.T) {
	failing := &fakeStarter{startErr: errors.New("dial refused")}
	err := startStream(failing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial refused")
	assert.Equal(t, 1, failing.closes)

	ok := &fakeStarter{}
	require.NoError(t, startStream(ok))
	assert.Equal(t, 0, ok.closes)
}

func TestNew_UnknownStorage(t *testing.T) {
	cfg := baseConfig(config.ModeSimulated)
	cfg.StorageMode = "s3"

	_, err := New(cfg, zap.NewNop(), nil)
	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	a, err := New(baseConfig(config.ModeSimulated), zap.NewNop(), nil)
	require.NoError(t, err)

	a.Close()
	a.Close()

	_, err = a.Dispatcher().Subscribe("1", func(types.MarketUpdate) {})
	assert.ErrorIs(t, err, subscription.ErrClosed)
}
