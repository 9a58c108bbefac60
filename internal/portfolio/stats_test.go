package portfolio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

func points(values ...float64) []types.PricePoint {
	out := make([]types.PricePoint, len(values))
	for i, v := range values {
		out[i] = types.PricePoint{Value: v}
	}
	return out
}

func TestCalculateMarketStats_Empty(t *testing.T) {
	assert.Equal(t, types.MarketStats{}, CalculateMarketStats(nil))
	assert.Equal(t, types.MarketStats{}, CalculateMarketStats([]types.PricePoint{}))
}

func TestCalculateMarketStats_PopulationStdDev(t *testing.T) {
	stats := CalculateMarketStats(points(2, 4, 4, 4, 5, 5, 7, 9))

	assert.Equal(t, 9.0, stats.High)
	assert.Equal(t, 2.0, stats.Low)
	assert.Equal(t, 5.0, stats.Average)
	// Population stddev of this classic series is exactly 2; the sample
	// stddev would be ~2.138.
	assert.Equal(t, 2.0, stats.Volatility)
}

func TestCalculateMarketStats_SinglePoint(t *testing.T) {
	stats := CalculateMarketStats(points(0.42))

	assert.Equal(t, 0.42, stats.High)
	assert.Equal(t, 0.42, stats.Low)
	assert.Equal(t, 0.42, stats.Average)
	assert.Equal(t, 0.0, stats.Volatility)
}

func TestHistoryToPricePoints(t *testing.T) {
	pts := HistoryToPricePoints([]types.HistoryPoint{{Odds: 25}, {Odds: 80}})

	require.Len(t, pts, 2)
	assert.Equal(t, 0.25, pts[0].Value)
	assert.Equal(t, 0.8, pts[1].Value)
}

func TestCalculateMovingAverage(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6}

	result := CalculateMovingAverage(series, 3)

	require.Len(t, result, len(series))
	assert.Nil(t, result[0])
	assert.Nil(t, result[1])
	want := []float64{2, 3, 4, 5}
	for i, w := range want {
		require.NotNil(t, result[i+2])
		assert.InDelta(t, w, *result[i+2], 1e-12)
	}
}

func TestCalculateMovingAverage_PeriodLongerThanSeries(t *testing.T) {
	result := CalculateMovingAverage([]float64{1, 2}, 7)

	require.Len(t, result, 2)
	assert.Nil(t, result[0])
	assert.Nil(t, result[1])
}

func TestCalculateMovingAverage_PeriodOne(t *testing.T) {
	series := []float64{3, math.Pi}
	result := CalculateMovingAverage(series, 1)

	require.Len(t, result, 2)
	assert.Equal(t, 3.0, *result[0])
	assert.Equal(t, math.Pi, *result[1])

	assert.Len(t, CalculateMovingAverage(series, 0), 2)
	assert.Empty(t, CalculateMovingAverage(nil, 3))
}
