// Package news fetches market-related headlines from the simulator's
// fixed set or from a news API.
package news

import (
	"context"
	"time"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// AllCategories requests news across every category.
const AllCategories = "all"

// Source returns headlines for a market category. An empty category is
// treated as AllCategories.
type Source interface {
	MarketNews(ctx context.Context, category string) ([]types.NewsItem, error)
}

// Simulated serves a small fixed set of headlines.
type Simulated struct {
	now func() time.Time
}

// NewSimulated creates a simulated news source.
func NewSimulated() *Simulated {
	return &Simulated{now: time.Now}
}

type fixedItem struct {
	id       string
	headline string
	summary  string
	source   string
	category string
	age      time.Duration
}

//nolint:gochecknoglobals // static fixture
var fixedItems = []fixedItem{
	{
		id:       "1",
		headline: "Fed Chair Signals More Aggressive Rate Cuts",
		summary:  "Jerome Powell hints at 50bp cut in upcoming meeting, citing economic concerns",
		source:   "Reuters",
		category: "Economics",
		age:      15 * time.Minute,
	},
	{
		id:       "2",
		headline: "Bitcoin ETF Sees Record Inflows",
		summary:  "$2.1B flows into Bitcoin ETFs in single day, institutional demand surging",
		source:   "Bloomberg",
		category: "Crypto",
		age:      45 * time.Minute,
	},
}

func (s *Simulated) MarketNews(ctx context.Context, category string) ([]types.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]types.NewsItem, 0, len(fixedItems))
	for _, f := range fixedItems {
		if category != "" && category != AllCategories && f.category != category {
			continue
		}
		items = append(items, types.NewsItem{
			ID:        f.id,
			Headline:  f.headline,
			Summary:   f.summary,
			Source:    f.source,
			Category:  f.category,
			Timestamp: now.Add(-f.age),
		})
	}
	return items, nil
}
