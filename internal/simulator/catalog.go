package simulator

import (
	"math"
	"time"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// HistoryDays is the length of the history attached to catalog markets.
const HistoryDays = 30

// trend returns the base odds (percent) for day i of a market's history.
type trend func(i float64) float64

type seedMarket struct {
	id          string
	title       string
	category    string
	odds        float64
	change24h   float64
	volume      float64
	resolveDate string
	description string
	trend       trend
	noise       float64 // max additive noise in percent points
}

//nolint:gochecknoglobals // static catalog
var catalog = []seedMarket{
	{
		id: "1", title: "Will there be a US recession in 2025?", category: "Economics",
		odds: 34, change24h: -2.3, volume: 2400000, resolveDate: "2025-12-31",
		description: "Market resolves YES if NBER declares recession starting in 2025",
		trend:       func(i float64) float64 { return 36 + math.Sin(i/5)*8 },
		noise:       4,
	},
	{
		id: "2", title: "Elon Musk to leave Trump administration in 2025?", category: "Politics",
		odds: 67, change24h: 5.2, volume: 1800000, resolveDate: "2025-12-31",
		description: "Market resolves YES if Musk officially leaves any government position",
		trend:       func(i float64) float64 { return 62 + math.Cos(i/4)*10 },
		noise:       3,
	},
	{
		id: "3", title: "Fed to cut rates in June 2025?", category: "Economics",
		odds: 78, change24h: 1.1, volume: 3200000, resolveDate: "2025-06-18",
		description: "Market resolves YES if Fed cuts rates by any amount in June FOMC meeting",
		trend:       func(i float64) float64 { return 76 + math.Sin(i/3)*6 },
		noise:       4,
	},
	{
		id: "4", title: "Bitcoin to reach $150k in 2025?", category: "Crypto/Regulation",
		odds: 23, change24h: -8.7, volume: 5600000, resolveDate: "2025-12-31",
		description: "Market resolves YES if BTC hits $150,000 at any point during 2025",
		trend:       func(i float64) float64 { return 31 - i*0.3 },
		noise:       5,
	},
	{
		id: "5", title: "AI to pass medical licensing exam?", category: "Technology",
		odds: 89, change24h: 12.4, volume: 1200000, resolveDate: "2025-09-30",
		description: "Market resolves YES if AI system passes USMLE Step 1 with >95% score",
		trend:       func(i float64) float64 { return 77 + i*0.4 },
		noise:       3,
	},
	{
		id: "6", title: "UEFA Champions League winner 2025?", category: "Sports",
		odds: 19, change24h: -1.5, volume: 4500000, resolveDate: "2025-05-31",
		description: "Market for Manchester City to win Champions League 2024-25",
		trend:       func(i float64) float64 { return 20.5 - math.Sin(i/5)*3 },
		noise:       2,
	},
	{
		id: "7", title: "Netflix subscriber milestone?", category: "Culture",
		odds: 72, change24h: 2.8, volume: 1600000, resolveDate: "2025-12-31",
		description: "Market resolves YES if Netflix reaches 300M subscribers in 2025",
		trend:       func(i float64) float64 { return 69 + math.Sin(i/4)*5 },
		noise:       3,
	},
	{
		id: "8", title: "Apple to acquire major AI company?", category: "Technology",
		odds: 56, change24h: 3.2, volume: 2100000, resolveDate: "2025-12-31",
		description: "Market resolves YES if Apple acquires AI company worth >$10B",
		trend:       func(i float64) float64 { return 53 + math.Cos(i/4)*8 },
		noise:       4,
	},
}

// GenerateMarketSet returns a freshly generated copy of the simulated
// catalog. Identities and headline figures are fixed; histories are
// regenerated on every call.
func (s *Simulator) GenerateMarketSet() []types.Market {
	now := s.now()
	markets := make([]types.Market, 0, len(catalog))

	for _, seed := range catalog {
		resolve, _ := time.Parse(time.DateOnly, seed.resolveDate)

		markets = append(markets, types.Market{
			ID:          seed.id,
			Title:       seed.title,
			Category:    seed.category,
			Odds:        seed.odds,
			Change24h:   seed.change24h,
			Volume:      seed.volume,
			ResolveDate: resolve,
			Description: seed.description,
			History:     s.seedHistory(seed, now),
		})
	}

	return markets
}

// seedHistory renders trend plus noise for HistoryDays days ending today.
// Values are clamped in probability space before converting to percent.
func (s *Simulator) seedHistory(seed seedMarket, now time.Time) []types.HistoryPoint {
	history := make([]types.HistoryPoint, HistoryDays)
	for i := 0; i < HistoryDays; i++ {
		odds := seed.trend(float64(i)) + s.float64()*seed.noise
		history[i] = types.HistoryPoint{
			Date: now.Add(-time.Duration(HistoryDays-1-i) * 24 * time.Hour),
			Odds: Clamp(odds/100) * 100,
		}
	}
	return history
}
