// Package portfolio values paper-trading positions against current market
// prices and summarizes price series.
package portfolio

import (
	"github.com/mselser95/polymarket-paper/pkg/types"
)

// InitialBalance is the fixed capital base returns are measured against,
// regardless of the portfolio's current balance.
const InitialBalance = 10000.0

// CalculatePnL values a position at currentPrice, a YES probability in
// [0,1]. NO positions are valued at the complement price.
func CalculatePnL(position types.Position, currentPrice float64) types.PnL {
	price := currentPrice
	if position.Type == types.SideNo {
		price = 1 - currentPrice
	}

	currentValue := position.Shares * price
	pnl := currentValue - position.Amount
	pnlPercent := pnl / position.Amount * 100

	return types.PnL{
		PnL:          pnl,
		PnLPercent:   pnlPercent,
		CurrentValue: currentValue,
	}
}

// CalculatePortfolioMetrics recomputes portfolio totals against a market
// snapshot. Closed positions are ignored. Open positions whose market is
// not in the snapshot still count toward OpenPositions but contribute no
// value or PnL. When the snapshot repeats an id, the first entry wins.
func CalculatePortfolioMetrics(portfolio types.Portfolio, markets []types.Market) types.PortfolioMetrics {
	byID := make(map[string]*types.Market, len(markets))
	for i := range markets {
		if _, ok := byID[markets[i].ID]; !ok {
			byID[markets[i].ID] = &markets[i]
		}
	}

	totalValue := portfolio.Balance
	totalPnL := 0.0
	openPositions := 0

	for i := range portfolio.Positions {
		position := portfolio.Positions[i]
		if !position.IsOpen() {
			continue
		}
		openPositions++

		market, ok := byID[position.MarketID]
		if !ok {
			continue
		}

		pnl := CalculatePnL(position, market.Odds/100)
		totalValue += pnl.CurrentValue
		totalPnL += pnl.PnL
	}

	totalReturn := (totalValue - InitialBalance) / InitialBalance * 100

	return types.PortfolioMetrics{
		TotalValue:       totalValue,
		TotalPnL:         totalPnL,
		TotalReturn:      totalReturn,
		OpenPositions:    openPositions,
		AvailableBalance: portfolio.Balance,
	}
}
