package markets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/gamma"
	"github.com/mselser95/polymarket-paper/pkg/config"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

// RateLimitResource is the limiter key for live market API calls.
const RateLimitResource = "polymarket"

// defaultOdds is used when a market carries no outcome prices.
const defaultOdds = 50.0

// OtherCategory is the display category for unmapped upstream categories.
const OtherCategory = "Other"

//nolint:gochecknoglobals // static lookup table
var categoryMap = map[string]string{
	"politics":      "Politics",
	"economics":     "Economics",
	"technology":    "Technology",
	"crypto":        "Crypto/Regulation",
	"sports":        "Sports",
	"entertainment": "Culture",
}

// MapCategory converts an upstream category to its display name.
func MapCategory(category string) string {
	if mapped, ok := categoryMap[strings.ToLower(strings.TrimSpace(category))]; ok {
		return mapped
	}
	return OtherCategory
}

// Live reads markets from the live API. Every call is admitted by the
// rate limiter before the transport is touched.
type Live struct {
	transport Transport
	limiter   Limiter
	maxCalls  int
	window    time.Duration
	logger    *zap.Logger
}

// LiveConfig holds live provider configuration.
type LiveConfig struct {
	Transport Transport
	Limiter   Limiter
	MaxCalls  int
	Window    time.Duration
	Logger    *zap.Logger
}

// NewLive creates a live provider.
func NewLive(cfg *LiveConfig) *Live {
	return &Live{
		transport: cfg.Transport,
		limiter:   cfg.Limiter,
		maxCalls:  cfg.MaxCalls,
		window:    cfg.Window,
		logger:    cfg.Logger,
	}
}

func (l *Live) Mode() config.Mode {
	return config.ModeLive
}

func (l *Live) GetMarkets(ctx context.Context) ([]types.Market, error) {
	err := l.admit("markets")
	if err != nil {
		return nil, err
	}

	raw, err := l.transport.FetchMarkets(ctx)
	if err != nil {
		ProviderErrorsTotal.WithLabelValues("markets").Inc()
		l.logger.Error("fetch-markets-failed", zap.Error(err))
		return nil, fmt.Errorf("get markets: %w", err)
	}

	markets := make([]types.Market, 0, len(raw))
	for i := range raw {
		markets = append(markets, l.toMarket(&raw[i]))
	}

	return markets, nil
}

func (l *Live) GetMarketDetails(ctx context.Context, marketID string) (*types.Market, error) {
	err := l.admit("market-details")
	if err != nil {
		return nil, err
	}

	raw, err := l.transport.FetchMarketDetails(ctx, marketID)
	if err != nil {
		ProviderErrorsTotal.WithLabelValues("market-details").Inc()
		if isClientError(err) {
			return nil, &types.NotFoundError{ID: marketID}
		}
		l.logger.Error("fetch-market-details-failed",
			zap.String("market-id", marketID),
			zap.Error(err))
		return nil, fmt.Errorf("get market details: %w", err)
	}

	market := l.toMarket(raw)
	return &market, nil
}

func (l *Live) GetMarketHistory(ctx context.Context, marketID string, timeframe string) ([]types.HistoryPoint, error) {
	if timeframe == "" {
		timeframe = types.DefaultTimeframe
	}
	_, err := types.TimeframeDays(timeframe)
	if err != nil {
		return nil, err
	}

	err = l.admit("market-history")
	if err != nil {
		return nil, err
	}

	raw, err := l.transport.FetchMarketHistory(ctx, marketID, timeframe)
	if err != nil {
		ProviderErrorsTotal.WithLabelValues("market-history").Inc()
		if isClientError(err) {
			return nil, &types.NotFoundError{ID: marketID}
		}
		l.logger.Error("fetch-market-history-failed",
			zap.String("market-id", marketID),
			zap.String("timeframe", timeframe),
			zap.Error(err))
		return nil, fmt.Errorf("get market history: %w", err)
	}

	history := make([]types.HistoryPoint, len(raw))
	for i, p := range raw {
		history[i] = types.HistoryPoint{
			Date: p.Timestamp.Time,
			Odds: float64(p.Price) * 100,
		}
	}

	return history, nil
}

func (l *Live) admit(operation string) error {
	err := l.limiter.CheckLimit(RateLimitResource, l.maxCalls, l.window)
	if err != nil {
		l.logger.Warn("live-call-rate-limited",
			zap.String("operation", operation),
			zap.Error(err))
		return err
	}
	return nil
}

func isClientError(err error) bool {
	var upstream *types.UpstreamError
	return errors.As(err, &upstream) && upstream.IsClientError()
}

// toMarket maps an upstream market into the local shape. History is left
// empty; it is fetched separately. An unparseable end date leaves
// ResolveDate zero and is logged.
func (l *Live) toMarket(m *gamma.Market) types.Market {
	odds := defaultOdds
	if len(m.OutcomePrices) > 0 && m.OutcomePrices[0] != 0 {
		odds = m.OutcomePrices[0] * 100
	}

	resolve, err := parseEndDate(m.EndDate)
	if err != nil {
		MalformedFieldsTotal.WithLabelValues("end-date").Inc()
		l.logger.Warn("market-end-date-unparseable",
			zap.String("market-id", string(m.ID)),
			zap.String("end-date", m.EndDate),
			zap.Error(err))
	}

	return types.Market{
		ID:          string(m.ID),
		Title:       m.Question,
		Category:    MapCategory(m.Category),
		Odds:        odds,
		Change24h:   float64(m.Change24h),
		Volume:      float64(m.Volume),
		ResolveDate: resolve,
		Description: m.Description,
		History:     []types.HistoryPoint{},
	}
}

// parseEndDate accepts RFC3339 timestamps and bare dates. An empty value
// is the zero time.
func parseEndDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse end date %q: %w", s, err)
	}
	return t, nil
}
