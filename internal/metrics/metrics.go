// Package metrics exposes Prometheus counters and histograms for the
// pipeline's stage outcomes, auto-registered the way the rest of this
// codebase's services instrument themselves.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "complaintpipe"

var (
	RowsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_ingested_total",
		Help:      "Total complaint rows successfully upserted by Ingest.",
	})

	RowsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_dropped_total",
		Help:      "Total rows dropped by Ingest for a missing sr_number or an unparseable open_ts.",
	})

	AnomaliesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "anomalies_emitted_total",
		Help:      "Total anomalies emitted by the Anomaly stage, labeled by severity.",
	}, []string{"severity"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall-clock duration of each pipeline stage.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"stage"})

	StageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stage_errors_total",
		Help:      "Total stage failures, labeled by stage.",
	}, []string{"stage"})
)

// Observe records a stage's wall-clock duration under its name.
func Observe(stage string, d time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Handler returns the /metrics HTTP handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
