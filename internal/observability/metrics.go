// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultNamespace = "dealhunt"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RunsStarted   prometheus.Counter
	RunsFinished  *prometheus.CounterVec // labelled by terminal phase
	RunDuration   prometheus.Histogram
	Opportunities prometheus.Counter

	SnapshotSaveFailures prometheus.Counter
	QuotaRemaining       prometheus.Gauge
	AlertsSent           prometheus.Counter
}

// NewMetrics creates a Metrics instance registered on the given registerer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}

	factory := promauto.With(reg)

	return &Metrics{
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "started_total",
			Help:      "Total number of pipeline runs dispatched",
		}),
		RunsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "finished_total",
			Help:      "Total number of pipeline runs by terminal phase",
		}, []string{"phase"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of pipeline runs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		Opportunities: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runs",
			Name:      "opportunities_total",
			Help:      "Total number of new opportunities discovered",
		}),
		SnapshotSaveFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "snapshot_save_failures_total",
			Help:      "Total number of failed snapshot writes",
		}),
		QuotaRemaining: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "remaining_runs",
			Help:      "Remaining permitted runs for the current day",
		}),
		AlertsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "alerts_sent_total",
			Help:      "Total number of opportunity alerts delivered",
		}),
	}
}
