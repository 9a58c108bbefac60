package types

import (
	"time"
)

// Market is a prediction-market instrument as exposed to callers.
// Odds is the YES probability expressed as a percentage in [0,100].
type Market struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	Odds        float64        `json:"odds"`
	Change24h   float64        `json:"change24h"`
	Volume      float64        `json:"volume"`
	ResolveDate time.Time      `json:"resolveDate"`
	Description string         `json:"description"`
	History     []HistoryPoint `json:"history"`
}

// HistoryPoint is one sample of a market's odds history (percentage).
type HistoryPoint struct {
	Date time.Time `json:"date"`
	Odds float64   `json:"odds"`
}

// PricePoint is a probability sample in [0,1].
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Clone returns a deep copy of the market, including its history.
func (m *Market) Clone() Market {
	out := *m
	if m.History != nil {
		out.History = make([]HistoryPoint, len(m.History))
		copy(out.History, m.History)
	}
	return out
}

// CloneMarkets deep-copies a market slice.
func CloneMarkets(markets []Market) []Market {
	if markets == nil {
		return nil
	}
	out := make([]Market, len(markets))
	for i := range markets {
		out[i] = markets[i].Clone()
	}
	return out
}

// FindMarket returns the market with the given ID, or nil.
func FindMarket(markets []Market, id string) *Market {
	for i := range markets {
		if markets[i].ID == id {
			return &markets[i]
		}
	}
	return nil
}

// MarketUpdate is a single streamed price change for a market.
type MarketUpdate struct {
	MarketID  string    `json:"marketId"`
	Odds      float64   `json:"odds"`
	Change24h float64   `json:"change24h"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketStats summarizes a price series.
type MarketStats struct {
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Average    float64 `json:"average"`
	Volatility float64 `json:"volatility"`
}

// Timeframe names accepted by history lookups.
const (
	Timeframe24h = "24h"
	Timeframe7d  = "7d"
	Timeframe30d = "30d"
	TimeframeAll = "all"
)

// DefaultTimeframe is used when a caller does not specify one.
const DefaultTimeframe = Timeframe30d

// TimeframeDays converts a timeframe name into a number of days of history.
func TimeframeDays(timeframe string) (int, error) {
	switch timeframe {
	case "", Timeframe30d:
		return 30, nil
	case Timeframe24h:
		return 1, nil
	case Timeframe7d:
		return 7, nil
	case TimeframeAll:
		return 365, nil
	default:
		return 0, &ValidationError{Field: "timeframe", Message: "unsupported timeframe " + timeframe}
	}
}
