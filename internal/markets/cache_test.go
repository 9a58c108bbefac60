package markets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/ratelimit"
	"github.com/mselser95/polymarket-paper/pkg/cache"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

func newCachedLive(t *testing.T, transport Transport) *CachedProvider {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	c, err := cache.NewRistrettoCache(cache.DefaultRistrettoConfig("markets-test", logger))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	live := NewLive(&LiveConfig{
		Transport: transport,
		Limiter:   ratelimit.New(),
		MaxCalls:  100,
		Window:    time.Minute,
		Logger:    logger,
	})
	return &CachedProvider{next: live, cache: c, ttl: time.Minute}
}

func TestCachedProvider_ServesFromCache(t *testing.T) {
	transport := &fakeTransport{markets: sampleMarkets()}
	provider := newCachedLive(t, transport)
	ctx := context.Background()

	_, err := provider.GetMarkets(ctx)
	require.NoError(t, err)
	provider.cache.Wait()

	_, err = provider.GetMarkets(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, transport.callCount())
}

func TestCachedProvider_NoAliasing(t *testing.T) {
	transport := &fakeTransport{markets: sampleMarkets()}
	provider := newCachedLive(t, transport)
	ctx := context.Background()

	first, err := provider.GetMarkets(ctx)
	require.NoError(t, err)
	provider.cache.Wait()
	first[0].Title = "mutated"
	first[0].History = append(first[0].History, types.HistoryPoint{Odds: 1})

	second, err := provider.GetMarkets(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Q1", second[0].Title)
	assert.Empty(t, second[0].History)

	detail, err := provider.GetMarketDetails(ctx, "a")
	require.NoError(t, err)
	provider.cache.Wait()
	detail.Odds = 0

	again, err := provider.GetMarketDetails(ctx, "a")
	require.NoError(t, err)
	assert.InDelta(t, 42, again.Odds, 1e-9)
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	transport := &fakeTransport{markets: sampleMarkets()}
	provider := newCachedLive(t, transport)
	ctx := context.Background()

	_, err := provider.GetMarketDetails(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	provider.cache.Wait()

	_, err = provider.GetMarketDetails(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.Equal(t, 2, transport.callCount())
}
