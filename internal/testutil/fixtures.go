package testutil

import (
	"time"

	"github.com/mselser95/polymarket-paper/internal/gamma"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

// CreateTestMarket creates an upstream market with a YES price.
func CreateTestMarket(id string, question string, category string, yesPrice float64) gamma.Market {
	return gamma.Market{
		ID:            gamma.FlexString(id),
		Question:      question,
		Category:      category,
		OutcomePrices: gamma.PriceList{yesPrice, 1 - yesPrice},
		Volume:        1000,
		EndDate:       "2025-12-31T00:00:00Z",
		Description:   "Test market: " + question,
	}
}

// CreateTestHistory creates n daily upstream price points ending at end.
func CreateTestHistory(n int, end time.Time, price float64) []gamma.HistoryPoint {
	points := make([]gamma.HistoryPoint, n)
	for i := range points {
		points[i] = gamma.HistoryPoint{
			Timestamp: gamma.Timestamp{Time: end.Add(-time.Duration(n-1-i) * 24 * time.Hour)},
			Price:     gamma.FlexFloat(price),
		}
	}
	return points
}

// CreateTestPosition creates an open position on marketID.
func CreateTestPosition(id string, marketID string, side types.Side, entryPrice float64, amount float64) types.Position {
	return types.Position{
		ID:         id,
		MarketID:   marketID,
		Type:       side,
		EntryPrice: entryPrice,
		Shares:     amount / entryPrice,
		Amount:     amount,
		Status:     types.PositionStatusOpen,
		OpenedAt:   time.Now(),
	}
}

// CreateTestUpdate creates a market update stamped now.
func CreateTestUpdate(marketID string, odds float64) *types.MarketUpdate {
	return &types.MarketUpdate{
		MarketID:  marketID,
		Odds:      odds,
		Change24h: 1.5,
		Timestamp: time.Now(),
	}
}
