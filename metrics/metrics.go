// Package metrics implements route lifecycle and error Prometheus metrics
// (persistence, cross-process messaging, exactly-once delivery and full
// scheduling stay out of scope — observability doesn't). Patterned after
// a conventional internal/metrics/metrics.go layout.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoutesStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routecraft_routes_started_total",
			Help: "Total number of routes started",
		},
		[]string{"route"},
	)

	RoutesStoppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routecraft_routes_stopped_total",
			Help: "Total number of routes stopped",
		},
		[]string{"route"},
	)

	ExchangesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routecraft_exchanges_processed_total",
			Help: "Total number of exchanges that reached the end of their branch",
		},
		[]string{"route"},
	)

	StepErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routecraft_step_errors_total",
			Help: "Total number of step execution errors by taxonomy code",
		},
		[]string{"route", "code"},
	)

	BatchFlushSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routecraft_batch_flush_size",
			Help:    "Number of messages merged per BatchConsumer flush",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"route"},
	)

	DirectChannelDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "routecraft_direct_channel_depth",
			Help: "Pending sends queued against a direct endpoint's subscriber",
		},
		[]string{"endpoint"},
	)

	TapTasksInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "routecraft_tap_tasks_in_flight",
			Help: "Number of tap background tasks currently running per route",
		},
		[]string{"route"},
	)
)
