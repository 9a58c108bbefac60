package types

import "time"

// Side is the outcome a position is staked on.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Valid reports whether s is YES or NO.
func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// PositionStatus tracks whether a position is open or closed.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

// Position is a caller-held stake on a market. MarketID is a weak
// reference resolved against the current market snapshot.
type Position struct {
	ID         string         `json:"id"`
	MarketID   string         `json:"marketId"`
	Type       Side           `json:"type"`
	EntryPrice float64        `json:"entryPrice"`
	Shares     float64        `json:"shares"`
	Amount     float64        `json:"amount"`
	Status     PositionStatus `json:"status"`
	OpenedAt   time.Time      `json:"openedAt"`
}

// IsOpen reports whether the position still counts toward valuation.
func (p *Position) IsOpen() bool {
	return p.Status == PositionStatusOpen
}

// Portfolio is the caller-owned paper trading account.
type Portfolio struct {
	Balance   float64             `json:"balance"`
	Positions []Position          `json:"positions"`
	History   []PortfolioSnapshot `json:"history"`
}

// PortfolioSnapshot is a point-in-time record of portfolio value.
type PortfolioSnapshot struct {
	Timestamp  time.Time `json:"timestamp"`
	TotalValue float64   `json:"totalValue"`
	Balance    float64   `json:"balance"`
}

// PnL is the valuation of a single position at a given price.
type PnL struct {
	PnL          float64 `json:"pnl"`
	PnLPercent   float64 `json:"pnlPercent"`
	CurrentValue float64 `json:"currentValue"`
}

// PortfolioMetrics is derived from a portfolio and a market snapshot on
// every valuation. It is never stored.
type PortfolioMetrics struct {
	TotalValue       float64 `json:"totalValue"`
	TotalPnL         float64 `json:"totalPnL"`
	TotalReturn      float64 `json:"totalReturn"`
	OpenPositions    int     `json:"openPositions"`
	AvailableBalance float64 `json:"availableBalance"`
}
