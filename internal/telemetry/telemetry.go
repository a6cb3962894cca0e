package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricsIngestedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "mlbench_metrics_ingested_total",
		Help: "Total number of metric samples stored, by owner kind.",
	},
	[]string{"owner"},
)

var runConflictsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
	prometheus.CounterOpts{
		Name: "mlbench_run_conflicts_total",
		Help: "Total number of run creations rejected because another run was active.",
	},
)

var jobLookupFailuresTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
	prometheus.CounterOpts{
		Name: "mlbench_job_lookup_failures_total",
		Help: "Total number of failed or timed out job backend lookups.",
	},
)

var exportDurationSeconds = promauto.With(prometheus.DefaultRegisterer).NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mlbench_export_duration_seconds",
		Help:    "Time spent building metric archives.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"owner"},
)

func RecordMetricIngested(owner string) {
	metricsIngestedTotal.WithLabelValues(owner).Inc()
}

func RecordRunConflict() {
	runConflictsTotal.Inc()
}

func RecordJobLookupFailure() {
	jobLookupFailuresTotal.Inc()
}

// ObserveExport records the time since start for an archive of the given owner kind.
func ObserveExport(owner string, start time.Time) {
	exportDurationSeconds.WithLabelValues(owner).Observe(time.Since(start).Seconds())
}
