package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks active stream connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_paper_ws_active_connections",
		Help: "Number of active market stream connections",
	})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_paper_ws_reconnect_attempts_total",
		Help: "Total number of market stream reconnection attempts",
	})

	// ReconnectFailuresTotal tracks reconnection failures.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_paper_ws_reconnect_failures_total",
		Help: "Total number of market stream reconnection failures",
	})

	// MessagesReceivedTotal tracks inbound frames by kind (market, control).
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_paper_ws_messages_received_total",
			Help: "Total number of market stream messages received",
		},
		[]string{"kind"},
	)

	// SubscriptionCount tracks markets currently subscribed on the stream.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_paper_ws_subscription_count",
		Help: "Number of markets subscribed on the stream",
	})

	// MessagesDroppedTotal tracks dropped inbound messages by reason.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_paper_ws_messages_dropped_total",
			Help: "Total number of market stream messages dropped",
		},
		[]string{"reason"},
	)

	// ConnectionDuration tracks stream connection lifetime.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_paper_ws_connection_duration_seconds",
		Help:    "Duration of market stream connections before disconnect",
		Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400, 28800, 43200, 86400},
	})

	// UnsubscriptionsTotal tracks market unsubscriptions.
	UnsubscriptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_paper_ws_unsubscriptions_total",
		Help: "Total number of market unsubscriptions",
	})
)
