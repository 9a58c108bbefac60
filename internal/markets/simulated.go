package markets

import (
	"context"

	"github.com/mselser95/polymarket-paper/internal/simulator"
	"github.com/mselser95/polymarket-paper/pkg/config"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

// Simulated serves the simulator's synthetic catalog.
type Simulated struct {
	sim *simulator.Simulator
}

// NewSimulated creates a simulated provider.
func NewSimulated(sim *simulator.Simulator) *Simulated {
	return &Simulated{sim: sim}
}

func (s *Simulated) Mode() config.Mode {
	return config.ModeSimulated
}

func (s *Simulated) GetMarkets(ctx context.Context) ([]types.Market, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.sim.GenerateMarketSet(), nil
}

func (s *Simulated) GetMarketDetails(ctx context.Context, marketID string) (*types.Market, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	market := types.FindMarket(s.sim.GenerateMarketSet(), marketID)
	if market == nil {
		return nil, &types.NotFoundError{ID: marketID}
	}
	return market, nil
}

// GetMarketHistory generates a fresh random walk anchored at the market's
// current odds, one point per day over the timeframe.
func (s *Simulated) GetMarketHistory(ctx context.Context, marketID string, timeframe string) ([]types.HistoryPoint, error) {
	days, err := types.TimeframeDays(timeframe)
	if err != nil {
		return nil, err
	}

	market, err := s.GetMarketDetails(ctx, marketID)
	if err != nil {
		return nil, err
	}

	points := s.sim.GenerateHistory(market.Odds/100, days)
	history := make([]types.HistoryPoint, len(points))
	for i, p := range points {
		history[i] = types.HistoryPoint{
			Date: p.Timestamp,
			Odds: p.Value * 100,
		}
	}

	return history, nil
}
