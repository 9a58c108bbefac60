package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BreakerState is the current state per breaker (0=closed, 1=half-open, 2=open).
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "polymarket_paper_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	// BreakerStateChanges counts transitions by target state.
	BreakerStateChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_paper_circuit_breaker_state_changes_total",
		Help: "Total number of circuit breaker state transitions",
	}, []string{"name", "to"})

	// BreakerRejectedTotal counts calls short-circuited while open.
	BreakerRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_paper_circuit_breaker_rejected_total",
		Help: "Total number of calls rejected by an open circuit breaker",
	}, []string{"name"})
)
