package markets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderErrorsTotal tracks live provider failures by operation.
	ProviderErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_paper_markets_provider_errors_total",
		Help: "Total number of live market provider errors",
	}, []string{"operation"})

	// MarketCacheHitsTotal tracks cache hits for market data.
	MarketCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_paper_markets_cache_hits_total",
		Help: "Total number of market cache hits",
	}, []string{"operation"})

	// MarketCacheMissesTotal tracks cache misses for market data.
	MarketCacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_paper_markets_cache_misses_total",
		Help: "Total number of market cache misses",
	}, []string{"operation"})

	// MalformedFieldsTotal tracks upstream market fields that failed to parse.
	MalformedFieldsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_paper_markets_malformed_fields_total",
		Help: "Total number of upstream market fields that could not be parsed",
	}, []string{"field"})
)
