package news

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts news API requests by endpoint and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_paper_news_requests_total",
		Help: "Total number of news API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	// RequestDurationSeconds tracks news API request latency.
	RequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "polymarket_paper_news_request_duration_seconds",
		Help:    "Duration of news API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
