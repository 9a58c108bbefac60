package simulator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constSource always returns the same Int63, making Float64 constant.
type constSource struct {
	v int64
}

func (c constSource) Int63() int64 { return c.v }
func (c constSource) Seed(int64)   {}

// maxRand yields Float64() == 1-2^-10. Float64 loops forever on exactly 1.
func maxRand() *rand.Rand {
	return rand.New(constSource{v: 1<<63 - 1<<53})
}

func zeroRand() *rand.Rand {
	return rand.New(constSource{v: 0})
}

func TestClamp(t *testing.T) {
	assert.Equal(t, MinPrice, Clamp(-1))
	assert.Equal(t, MinPrice, Clamp(0))
	assert.Equal(t, MaxPrice, Clamp(1))
	assert.Equal(t, MaxPrice, Clamp(3))
	assert.Equal(t, 0.5, Clamp(0.5))
}

func TestGenerateHistory_AnchorsLastPoint(t *testing.T) {
	sim := New(rand.New(rand.NewSource(42)))

	for _, seed := range []float64{0.01, 0.25, 0.5, 0.731, 0.99} {
		for _, days := range []int{1, 7, 30, 365} {
			history := sim.GenerateHistory(seed, days)
			require.Len(t, history, days+1)
			assert.Equal(t, seed, history[len(history)-1].Value, "seed %v days %d", seed, days)
		}
	}
}

func TestGenerateHistory_ValuesWithinBounds(t *testing.T) {
	sim := New(rand.New(rand.NewSource(7)))

	for trial := 0; trial < 200; trial++ {
		history := sim.GenerateHistory(0.5, 60)
		for i, p := range history {
			assert.GreaterOrEqual(t, p.Value, MinPrice, "point %d", i)
			assert.LessOrEqual(t, p.Value, MaxPrice, "point %d", i)
		}
	}
}

func TestGenerateHistory_ClampsAtUpperBound(t *testing.T) {
	// Float64 close to 1 means every step is +MaxStep.
	sim := New(maxRand())

	history := sim.GenerateHistory(0.97, 10)

	for i := 1; i < len(history)-1; i++ {
		assert.Equal(t, MaxPrice, history[i].Value, "point %d", i)
	}
	assert.Equal(t, 0.97, history[len(history)-1].Value)
}

func TestGenerateHistory_ClampsAtLowerBound(t *testing.T) {
	// Float64 of 0 means every step is -MaxStep.
	sim := New(zeroRand())

	history := sim.GenerateHistory(0.03, 10)

	for i := 0; i < len(history)-1; i++ {
		assert.Equal(t, MinPrice, history[i].Value, "point %d", i)
	}
	assert.Equal(t, 0.03, history[len(history)-1].Value)
}

func TestGenerateHistory_OrderedOldestFirst(t *testing.T) {
	sim := New(rand.New(rand.NewSource(1)))
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sim.now = func() time.Time { return fixed }

	history := sim.GenerateHistory(0.4, 5)

	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].Timestamp.After(history[i-1].Timestamp))
	}
	assert.Equal(t, fixed, history[len(history)-1].Timestamp)
	assert.Equal(t, fixed.Add(-5*24*time.Hour), history[0].Timestamp)
}

func TestGenerateHistory_MinimumOneDay(t *testing.T) {
	sim := New(nil)

	history := sim.GenerateHistory(0.5, 0)

	assert.Len(t, history, 2)
	assert.Equal(t, 0.5, history[1].Value)
}

func TestGenerateMarketSet(t *testing.T) {
	sim := New(rand.New(rand.NewSource(3)))

	markets := sim.GenerateMarketSet()
	require.Len(t, markets, 8)

	seen := make(map[string]bool)
	for _, m := range markets {
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true

		assert.GreaterOrEqual(t, m.Odds, 0.0)
		assert.LessOrEqual(t, m.Odds, 100.0)
		assert.GreaterOrEqual(t, m.Volume, 0.0)
		assert.False(t, m.ResolveDate.IsZero())

		require.Len(t, m.History, HistoryDays)
		for i, h := range m.History {
			assert.InDelta(t, 50, h.Odds, 49.0000001, "market %s point %d", m.ID, i)
			if i > 0 {
				assert.True(t, h.Date.After(m.History[i-1].Date))
			}
		}
	}
}

func TestGenerateMarketSet_FreshSnapshots(t *testing.T) {
	sim := New(rand.New(rand.NewSource(3)))

	first := sim.GenerateMarketSet()
	first[0].Title = "mutated"
	first[0].History[0].Odds = -1

	second := sim.GenerateMarketSet()
	assert.NotEqual(t, "mutated", second[0].Title)
	assert.NotEqual(t, -1.0, second[0].History[0].Odds)
}

func TestNextUpdate(t *testing.T) {
	sim := New(rand.New(rand.NewSource(11)))

	for i := 0; i < 500; i++ {
		u := sim.NextUpdate("3")
		assert.Equal(t, "3", u.MarketID)
		assert.GreaterOrEqual(t, u.Odds, 1.0-1e-9)
		assert.LessOrEqual(t, u.Odds, 99.0+1e-9)
		assert.GreaterOrEqual(t, u.Change24h, -5.0)
		assert.LessOrEqual(t, u.Change24h, 5.0)
		assert.False(t, u.Timestamp.IsZero())
	}
}
