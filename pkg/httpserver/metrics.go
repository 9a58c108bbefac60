package httpserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestErrorsTotal counts API error responses by status.
	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_paper_http_request_errors_total",
			Help: "Total number of API error responses",
		},
		[]string{"status"},
	)

	// StreamClientsActive tracks connected websocket clients.
	StreamClientsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "polymarket_paper_http_stream_clients_active",
			Help: "Number of connected market stream clients",
		},
	)

	// StreamUpdatesDroppedTotal counts updates dropped for slow clients.
	StreamUpdatesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polymarket_paper_http_stream_updates_dropped_total",
			Help: "Total number of updates dropped because a stream client was slow",
		},
	)
)
