// Package metrics exposes Prometheus instruments for the rate importer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ImportMetrics holds the importer's collectors. A nil *ImportMetrics is a no-op.
type ImportMetrics struct {
	Runs          *prometheus.CounterVec
	Rows          *prometheus.CounterVec
	Pruned        prometheus.Counter
	Duration      prometheus.Histogram
	LastSuccessTS prometheus.Gauge
}

// NewImportMetrics registers the importer collectors on reg.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	f := promauto.With(reg)
	return &ImportMetrics{
		Runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_import_runs_total",
				Help: "Scheduled import runs by final status and skip reason.",
			},
			[]string{"status", "reason"},
		),
		Rows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_import_rows_total",
				Help: "Rate rows handled by imports, by outcome.",
			},
			[]string{"outcome"},
		),
		Pruned: f.NewCounter(prometheus.CounterOpts{
			Name: "rates_pruned_total",
			Help: "Observations removed by retention pruning.",
		}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rates_import_duration_seconds",
			Help:    "Duration of scheduled import runs.",
			Buckets: prometheus.DefBuckets,
		}),
		LastSuccessTS: f.NewGauge(prometheus.GaugeOpts{
			Name: "rates_import_last_success_timestamp_seconds",
			Help: "Unix time of the last scheduled import that finished with status ok.",
		}),
	}
}

// ObserveRun records one finished run.
func (m *ImportMetrics) ObserveRun(status, reason string, inserted, skipped, errs int, pruned int64, took time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(status, reason).Inc()
	m.Rows.WithLabelValues("inserted").Add(float64(inserted))
	m.Rows.WithLabelValues("skipped").Add(float64(skipped))
	m.Rows.WithLabelValues("error").Add(float64(errs))
	if pruned > 0 {
		m.Pruned.Add(float64(pruned))
	}
	m.Duration.Observe(took.Seconds())
	if status == "ok" {
		m.LastSuccessTS.SetToCurrentTime()
	}
}
