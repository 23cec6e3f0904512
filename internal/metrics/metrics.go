// Package metrics exposes the Prometheus counters/histograms the HTTP
// boundary and pipeline record, registered on the default registry with
// promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsTotal counts jobs by terminal status (done|failed).
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "degiro_returns_jobs_total",
			Help: "Total async jobs by terminal status",
		},
		[]string{"status"},
	)

	// ComputeDuration tracks end-to-end pipeline latency.
	ComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "degiro_returns_compute_duration_seconds",
			Help:    "ComputeReturns wall-clock duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// TradesProcessed tracks the size of the normalized trade table per run.
	TradesProcessed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "degiro_returns_trades_processed",
			Help:    "Normalized trade count per computation",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		},
	)

	// PipelineErrors counts pipeline failures by classified error kind
	// (spec.md §7 ERROR HANDLING DESIGN).
	PipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "degiro_returns_pipeline_errors_total",
			Help: "Pipeline failures by error kind",
		},
		[]string{"kind"},
	)

	// TwoMonthSuppressions counts realized losses discarded by the
	// Spanish two-month rule.
	TwoMonthSuppressions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "degiro_returns_two_month_suppressions_total",
			Help: "Realized losses suppressed by the two-month rule",
		},
	)
)
