// Package simulator generates synthetic prediction-market prices: random
// walk histories anchored to a current price, a seeded market catalog and
// per-tick streaming updates.
package simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// Probability bounds for every simulated price. Exact 0 and 1 are avoided.
const (
	MinPrice = 0.01
	MaxPrice = 0.99
)

// MaxStep is the largest absolute per-day move of the random walk.
const MaxStep = 0.05

// Simulator produces random price data. It is safe for concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New creates a simulator drawing from rng. A nil rng uses a time-seeded
// source.
func New(rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		rng: rng,
		now: time.Now,
	}
}

// Clamp bounds p to [MinPrice, MaxPrice].
func Clamp(p float64) float64 {
	if p < MinPrice {
		return MinPrice
	}
	if p > MaxPrice {
		return MaxPrice
	}
	return p
}

func (s *Simulator) float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// GenerateHistory performs a bounded random walk starting at seedPrice and
// returns days+1 daily points, oldest first, ending now. Each point moves the previous one by a
// uniform delta in [-MaxStep, MaxStep] and is clamped. The final point is
// set to seedPrice exactly.
func (s *Simulator) GenerateHistory(seedPrice float64, days int) []types.PricePoint {
	if days < 1 {
		days = 1
	}

	now := s.now()
	history := make([]types.PricePoint, 0, days+1)
	price := seedPrice

	for i := days; i >= 0; i-- {
		change := (s.float64() - 0.5) * 2 * MaxStep
		price = Clamp(price + change)

		history = append(history, types.PricePoint{
			Timestamp: now.Add(-time.Duration(i) * 24 * time.Hour),
			Value:     price,
		})
	}

	history[len(history)-1].Value = seedPrice

	return history
}

// NextUpdate synthesizes one streamed update for marketID.
func (s *Simulator) NextUpdate(marketID string) types.MarketUpdate {
	odds := Clamp(s.float64()) * 100
	change := (s.float64() - 0.5) * 10

	return types.MarketUpdate{
		MarketID:  marketID,
		Odds:      odds,
		Change24h: change,
		Timestamp: s.now(),
	}
}
