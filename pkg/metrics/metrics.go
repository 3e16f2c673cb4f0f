package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "carbonscan_build_info",
			Help: "Build information of the carbonscan reporting service",
		},
		[]string{"version", "commit", "date"},
	)

	ViewRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbonscan_view_refresh_total",
			Help: "Total number of view refreshes",
		},
		[]string{"view_type", "status"},
	)

	ViewRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carbonscan_view_refresh_duration_seconds",
			Help:    "Duration of view refreshes",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"view_type"},
	)

	DatabaseQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbonscan_database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"status"},
	)

	FeeDistributionsComputedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carbonscan_fee_distributions_computed_total",
			Help: "Total number of base fee distributions computed, by resolved regime",
		},
		[]string{"regime"},
	)

	BurnFractionOutOfRangeTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carbonscan_burn_fraction_out_of_range_total",
			Help: "Total number of on-chain burn fraction values observed outside [0, 1]",
		},
	)
)
