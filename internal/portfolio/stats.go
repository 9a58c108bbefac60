package portfolio

import (
	"math"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// CalculateMarketStats returns high, low, mean and population standard
// deviation of the series. An empty series yields all zeros.
func CalculateMarketStats(history []types.PricePoint) types.MarketStats {
	if len(history) == 0 {
		return types.MarketStats{}
	}

	high := history[0].Value
	low := history[0].Value
	sum := 0.0
	for _, p := range history {
		high = math.Max(high, p.Value)
		low = math.Min(low, p.Value)
		sum += p.Value
	}
	n := float64(len(history))
	average := sum / n

	variance := 0.0
	for _, p := range history {
		d := p.Value - average
		variance += d * d
	}
	variance /= n

	return types.MarketStats{
		High:       high,
		Low:        low,
		Average:    average,
		Volatility: math.Sqrt(variance),
	}
}

// HistoryToPricePoints converts percentage odds history to [0,1] points.
func HistoryToPricePoints(history []types.HistoryPoint) []types.PricePoint {
	points := make([]types.PricePoint, len(history))
	for i, h := range history {
		points[i] = types.PricePoint{Timestamp: h.Date, Value: h.Odds / 100}
	}
	return points
}

// CalculateMovingAverage returns a slice the same length as series. The
// first period-1 entries are nil; entry i holds the mean of
// series[i-period+1 : i+1]. A period below 1 is treated as 1.
func CalculateMovingAverage(series []float64, period int) []*float64 {
	if period < 1 {
		period = 1
	}

	result := make([]*float64, len(series))
	for i := period - 1; i < len(series); i++ {
		sum := 0.0
		for _, v := range series[i-period+1 : i+1] {
			sum += v
		}
		avg := sum / float64(period)
		result[i] = &avg
	}

	return result
}
