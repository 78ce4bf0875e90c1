package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/version"
)

var buildInfoOnce sync.Once

var (
	// Executions counts per connection outcomes of route executions.
	// Labels: route slug, connection slug, outcome (success/skipped/error)
	Executions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbroute_executions_total",
			Help: "Route executions per connection and outcome",
		},
		[]string{"route", "connection", "outcome"},
	)

	ExecutionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbroute_execution_duration_seconds",
			Help:    "Time spent executing a route on one connection",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"route", "connection"},
	)

	InflightConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dbroute_inflight_connections",
			Help: "Target connections currently open",
		},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbroute_job_runs_total",
			Help: "Integration job runs per job and status",
		},
		[]string{"job", "status"},
	)

	JobRowsCopied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbroute_job_rows_copied_total",
			Help: "Rows copied by integration jobs",
		},
		[]string{"job"},
	)

	HistoryDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dbroute_history_dropped_total",
			Help: "Execution log entries dropped because the writer queue was full",
		},
	)
)

func ObserveExecution(route, connection, outcome string, elapsed time.Duration) {
	Executions.WithLabelValues(route, connection, outcome).Inc()
	if elapsed > 0 {
		ExecutionLatency.WithLabelValues(route, connection).Observe(elapsed.Seconds())
	}
}

// RegisterBuildInfo exposes dbroute_build_info for the running binary. Only
// the first call registers the collector.
func RegisterBuildInfo(ver, revision, buildDate string) {
	buildInfoOnce.Do(func() {
		version.Version = ver
		version.Revision = revision
		version.BuildDate = buildDate
		prometheus.MustRegister(versioncollector.NewCollector("dbroute"))
	})
}
