package markets

import (
	"context"
	"time"

	"github.com/mselser95/polymarket-paper/pkg/cache"
	"github.com/mselser95/polymarket-paper/pkg/config"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

const (
	marketsKey      = "markets"
	marketKeyPrefix = "market:"
	defaultCacheTTL = 10 * time.Second
)

// CachedProvider keeps short-lived copies of market lists and details.
// Values are deep-copied on the way in and out, so callers never share
// state with the cache or each other. History is not cached.
type CachedProvider struct {
	next  Provider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps next with a TTL cache.
func NewCachedProvider(next Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedProvider{
		next:  next,
		cache: c,
		ttl:   ttl,
	}
}

func (c *CachedProvider) Mode() config.Mode {
	return c.next.Mode()
}

func (c *CachedProvider) GetMarkets(ctx context.Context) ([]types.Market, error) {
	if cached, ok := c.cache.Get(marketsKey); ok {
		if markets, ok := cached.([]types.Market); ok {
			MarketCacheHitsTotal.WithLabelValues("markets").Inc()
			return types.CloneMarkets(markets), nil
		}
	}
	MarketCacheMissesTotal.WithLabelValues("markets").Inc()

	markets, err := c.next.GetMarkets(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.Set(marketsKey, types.CloneMarkets(markets), c.ttl)
	return markets, nil
}

func (c *CachedProvider) GetMarketDetails(ctx context.Context, marketID string) (*types.Market, error) {
	key := marketKeyPrefix + marketID
	if cached, ok := c.cache.Get(key); ok {
		if market, ok := cached.(types.Market); ok {
			MarketCacheHitsTotal.WithLabelValues("market-details").Inc()
			out := market.Clone()
			return &out, nil
		}
	}
	MarketCacheMissesTotal.WithLabelValues("market-details").Inc()

	market, err := c.next.GetMarketDetails(ctx, marketID)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, market.Clone(), c.ttl)
	return market, nil
}

func (c *CachedProvider) GetMarketHistory(ctx context.Context, marketID string, timeframe string) ([]types.HistoryPoint, error) {
	return c.next.GetMarketHistory(ctx, marketID, timeframe)
}
