// Package metrics exposes Prometheus counters for compile runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seismic",
		Name:      "catalog_records_scanned_total",
		Help:      "Logical catalog records read.",
	})

	SourcesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seismic",
		Name:      "sources_total",
		Help:      "Source blocks by kind and terminal state.",
	}, []string{"kind", "status"})

	CompileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "seismic",
		Name:      "compile_duration_seconds",
		Help:      "Wall time of one catalog compile run.",
		Buckets:   prometheus.DefBuckets,
	})

	EventsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "seismic",
		Name:      "events_skipped_total",
		Help:      "Outcome events not delivered to a full stream subscriber.",
	})

	MFDBins = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "seismic",
		Name:      "mfd_bins",
		Help:      "Bin count of synthesized distributions.",
		Buckets:   prometheus.LinearBuckets(5, 5, 10),
	})
)
