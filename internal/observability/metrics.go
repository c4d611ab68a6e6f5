package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	datasetLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cruscotto",
		Subsystem: "loader",
		Name:      "dataset_loads_total",
		Help:      "Dataset load attempts by outcome (ok, error, cache_hit).",
	}, []string{"outcome"})

	loadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cruscotto",
		Subsystem: "loader",
		Name:      "dataset_load_duration_seconds",
		Help:      "Wall time of dataset loads that reached the source.",
		Buckets:   prometheus.DefBuckets,
	})

	quarantinedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cruscotto",
		Subsystem: "loader",
		Name:      "quarantined_rows_total",
		Help:      "Source rows rejected by coercion at the load boundary.",
	})

	snapshotAge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cruscotto",
		Subsystem: "snapshot",
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix timestamp of the most recent snapshot written to SQLite.",
	})
)

func init() {
	prometheus.MustRegister(datasetLoads, loadDuration, quarantinedRows, snapshotAge)
}

// RecordLoad counts a load attempt by outcome: "ok", "error" or "cache_hit".
func RecordLoad(outcome string) {
	datasetLoads.WithLabelValues(outcome).Inc()
}

// RecordLoadDuration observes the wall time of a load that hit the source.
func RecordLoadDuration(d time.Duration) {
	loadDuration.Observe(d.Seconds())
}

// RecordQuarantined counts rows rejected at the load boundary.
func RecordQuarantined(n int) {
	if n > 0 {
		quarantinedRows.Add(float64(n))
	}
}

// RecordSnapshotRefreshed updates the snapshot watermark gauge.
func RecordSnapshotRefreshed(ts time.Time) {
	if ts.IsZero() {
		return
	}
	snapshotAge.Set(float64(ts.Unix()))
}
