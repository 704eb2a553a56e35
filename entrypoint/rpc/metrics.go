package rpc

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the entry point service
type Metrics struct {
	PlannedSwaps    *prometheus.CounterVec
	BuiltMemos      *prometheus.CounterVec
	Errors          *prometheus.CounterVec
	VenueSimulation *prometheus.HistogramVec
	PlannedMessages prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics creates and registers the metrics once per process
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			PlannedSwaps: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "spectra_entry_point",
					Subsystem: "rpc",
					Name:      "planned_swaps_total",
					Help:      "Total number of user swaps planned",
				},
				[]string{"venue", "mode"},
			),
			BuiltMemos: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "spectra_entry_point",
					Subsystem: "rpc",
					Name:      "built_memos_total",
					Help:      "Total number of swap_and_action memos built",
				},
				[]string{"venue", "action"},
			),
			Errors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "spectra_entry_point",
					Subsystem: "rpc",
					Name:      "errors_total",
					Help:      "Total number of failed rpc calls by procedure and code",
				},
				[]string{"procedure", "code"},
			),
			VenueSimulation: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "spectra_entry_point",
					Subsystem: "venue",
					Name:      "simulation_duration_seconds",
					Help:      "Latency of swap venue simulations",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"venue", "mode"},
			),
			PlannedMessages: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "spectra_entry_point",
					Subsystem: "rpc",
					Name:      "planned_messages",
					Help:      "Number of messages a planned user swap emits",
					Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
				},
			),
		}
	})
	return metrics
}
