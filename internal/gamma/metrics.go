package gamma

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts upstream requests by endpoint and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_paper_upstream_requests_total",
		Help: "Total number of market API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	// RequestDurationSeconds tracks upstream request latency.
	RequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "polymarket_paper_upstream_request_duration_seconds",
		Help:    "Duration of market API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
