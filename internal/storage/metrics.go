package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesStoredTotal tracks updates successfully stored per backend.
	UpdatesStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_paper_storage_updates_stored_total",
			Help: "Total number of market updates stored",
		},
		[]string{"backend"},
	)

	// StoreErrorsTotal tracks failed store operations per backend.
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polymarket_paper_storage_errors_total",
			Help: "Total number of failed store operations",
		},
		[]string{"backend"},
	)
)
