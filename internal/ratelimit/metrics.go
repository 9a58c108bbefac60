package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// AllowedTotal counts calls admitted by the limiter.
	AllowedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_paper_ratelimit_allowed_total",
			Help: "Total number of calls admitted by the sliding-window limiter",
		},
		[]string{"resource"},
	)

	// RejectedTotal counts calls rejected because the window was full.
	RejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_paper_ratelimit_rejected_total",
			Help: "Total number of calls rejected by the sliding-window limiter",
		},
		[]string{"resource"},
	)

	// WindowUsage tracks calls recorded in the current window after the last admitted call.
	WindowUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "polymarket_paper_ratelimit_window_usage",
			Help: "Calls recorded in the trailing window per resource",
		},
		[]string{"resource"},
	)
)
