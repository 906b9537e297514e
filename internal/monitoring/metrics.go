// Package monitoring holds the Prometheus collectors and tracing helpers for admission and backfill
// decisions. They are registered on the controller-runtime registry so they
// are served by the manager's metrics endpoint.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

// Outcome values shared by the admission and backfill counters.
const (
	OutcomeMutated   = "mutated"
	OutcomeUnchanged = "unchanged"
	OutcomeSkipped   = "skipped"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
)

var (
	admissionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namespace_project_admission_total",
			Help: "Total number of namespace admission requests by decision.",
		},
		[]string{"operation", "outcome"},
	)

	admissionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "namespace_project_admission_duration_seconds",
			Help:    "Latency of namespace admission handling in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	backfillTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "namespace_project_backfill_total",
			Help: "Total number of backfill reconciliations by decision.",
		},
		[]string{"outcome"},
	)
)

func init() {
	metrics.Registry.MustRegister(admissionTotal, admissionDuration, backfillTotal)
}

// RecordAdmission records one admission decision and how long it took.
func RecordAdmission(operation, outcome string, duration time.Duration) {
	admissionTotal.WithLabelValues(operation, outcome).Inc()
	admissionDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBackfill records one backfill decision.
func RecordBackfill(outcome string) {
	backfillTotal.WithLabelValues(outcome).Inc()
}
