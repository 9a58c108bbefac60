package subscription

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSubscriptions tracks live registrations by dispatcher mode.
	ActiveSubscriptions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "polymarket_paper_subscriptions_active",
		Help: "Number of active market update subscriptions",
	}, []string{"mode"})

	// UpdatesDeliveredTotal counts updates handed to listeners.
	UpdatesDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_paper_subscription_updates_delivered_total",
		Help: "Total number of market updates delivered to listeners",
	}, []string{"mode"})

	// UpdatesDroppedTotal counts updates dropped on a full listener queue.
	UpdatesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_paper_subscription_updates_dropped_total",
		Help: "Total number of market updates dropped because a listener queue was full",
	}, []string{"mode"})

	// ListenerPanicsTotal counts recovered listener panics.
	ListenerPanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_paper_subscription_listener_panics_total",
		Help: "Total number of recovered listener panics",
	}, []string{"mode"})

	// MalformedMessagesTotal counts stream messages that failed to decode.
	MalformedMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_paper_subscription_malformed_messages_total",
		Help: "Total number of malformed stream messages dropped",
	})

	// StreamsOpenedTotal counts live stream opens.
	StreamsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_paper_subscription_streams_opened_total",
		Help: "Total number of live streams opened",
	})

	// StreamsClosedTotal counts live stream teardowns.
	StreamsClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_paper_subscription_streams_closed_total",
		Help: "Total number of live streams closed",
	})

	// StaleMessagesTotal counts messages discarded from a torn-down stream.
	StaleMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_paper_subscription_stale_messages_total",
		Help: "Total number of messages discarded because their stream was already closed",
	})
)
