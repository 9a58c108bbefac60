package portfolio

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// DefaultMaxPositionSize caps a single position at 20% of balance.
const DefaultMaxPositionSize = 0.2

// ImpliedProbability converts a [0,1] price to a percentage.
func ImpliedProbability(price float64) float64 {
	return price * 100
}

// SidePrice returns the price of one share of side given the YES price.
func SidePrice(side types.Side, yesPrice float64) float64 {
	if side == types.SideNo {
		return 1 - yesPrice
	}
	return yesPrice
}

// CalculatePotentialPayout is the amount returned if side resolves true:
// amount divided by the side's price.
func CalculatePotentialPayout(amount, yesPrice float64, side types.Side) (float64, error) {
	price := decimal.NewFromFloat(SidePrice(side, yesPrice))
	if !price.IsPositive() {
		return 0, &types.ValidationError{Field: "price", Message: "must be greater than 0"}
	}

	payout, _ := decimal.NewFromFloat(amount).Div(price).Float64()
	return payout, nil
}

// ValidateTradeAmount checks amount against the available balance and the
// per-position cap (a fraction of balance). Comparisons are done in
// decimal so cents at the boundary are not lost to float rounding.
func ValidateTradeAmount(amount, balance, maxPositionSize float64) error {
	amt := decimal.NewFromFloat(amount)
	bal := decimal.NewFromFloat(balance)

	if !amt.IsPositive() {
		return &types.ValidationError{Field: "amount", Message: "amount must be greater than 0"}
	}

	if amt.GreaterThan(bal) {
		return &types.ValidationError{Field: "amount", Message: "insufficient balance"}
	}

	maxAllowed := bal.Mul(decimal.NewFromFloat(maxPositionSize))
	if amt.GreaterThan(maxAllowed) {
		return &types.ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("maximum position size is %s%% of balance", decimal.NewFromFloat(maxPositionSize*100).StringFixed(0)),
		}
	}

	return nil
}

// OpenPosition validates and books a new position on market at its
// current odds, debiting the portfolio balance. The position is appended
// to the portfolio and also returned.
func OpenPosition(p *types.Portfolio, market types.Market, side types.Side, amount, maxPositionSize float64) (types.Position, error) {
	if !side.Valid() {
		return types.Position{}, &types.ValidationError{Field: "type", Message: fmt.Sprintf("unknown side %q", side)}
	}

	err := ValidateTradeAmount(amount, p.Balance, maxPositionSize)
	if err != nil {
		return types.Position{}, err
	}

	price := decimal.NewFromFloat(SidePrice(side, market.Odds/100))
	if !price.IsPositive() || price.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return types.Position{}, &types.ValidationError{Field: "price", Message: "market price must be strictly between 0 and 1"}
	}

	amt := decimal.NewFromFloat(amount)
	shares, _ := amt.Div(price).Float64()
	entry, _ := price.Float64()
	balance, _ := decimal.NewFromFloat(p.Balance).Sub(amt).Float64()

	position := types.Position{
		ID:         uuid.NewString(),
		MarketID:   market.ID,
		Type:       side,
		EntryPrice: entry,
		Shares:     shares,
		Amount:     amount,
		Status:     types.PositionStatusOpen,
		OpenedAt:   time.Now(),
	}

	p.Balance = balance
	p.Positions = append(p.Positions, position)

	return position, nil
}

// ClosePosition marks an open position closed and credits its current
// value at yesPrice back to the balance.
func ClosePosition(p *types.Portfolio, positionID string, yesPrice float64) (types.PnL, error) {
	for i := range p.Positions {
		position := &p.Positions[i]
		if position.ID != positionID {
			continue
		}
		if !position.IsOpen() {
			return types.PnL{}, &types.ValidationError{Field: "position", Message: "position already closed"}
		}

		pnl := CalculatePnL(*position, yesPrice)
		balance, _ := decimal.NewFromFloat(p.Balance).Add(decimal.NewFromFloat(pnl.CurrentValue)).Float64()

		position.Status = types.PositionStatusClosed
		p.Balance = balance

		return pnl, nil
	}

	return types.PnL{}, &types.NotFoundError{Kind: "position", ID: positionID}
}

// Snapshot appends the current total value to the portfolio history.
func Snapshot(p *types.Portfolio, markets []types.Market, at time.Time) types.PortfolioSnapshot {
	metrics := CalculatePortfolioMetrics(*p, markets)
	snap := types.PortfolioSnapshot{
		Timestamp:  at,
		TotalValue: metrics.TotalValue,
		Balance:    p.Balance,
	}
	p.History = append(p.History, snap)
	return snap
}
