package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smukkama/pedestrian-stats/internal/stats"
)

// Drop reasons
const (
	ReasonRejectedSource     = "rejected_source_row"
	ReasonMalformedTimestamp = "malformed_timestamp"
	ReasonUnresolvedSensor   = "unresolved_sensor"
)

// RunMetrics holds the metrics of one staging run. A batch job has no
// scrape endpoint, so the registry is written to a textfile collector.
type RunMetrics struct {
	registry *prometheus.Registry

	droppedRows   *prometheus.CounterVec
	stagedRows    *prometheus.GaugeVec
	undefinedPct  *prometheus.GaugeVec
	inputRows     *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
	runDuration   prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

// NewRunMetrics creates the run metrics on a fresh registry
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &RunMetrics{
		registry: reg,
		droppedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pedestrian_dropped_rows_total",
			Help: "Rows dropped for row-level defects",
		}, []string{"reason", "table"}),
		stagedRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pedestrian_staged_rows",
			Help: "Rows written to each staged table by the last run",
		}, []string{"table"}),
		undefinedPct: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pedestrian_undefined_percent_deltas",
			Help: "Comparison rows with a zero baseline average",
		}, []string{"table"}),
		inputRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pedestrian_input_rows",
			Help: "Rows read from each source dataset",
		}, []string{"dataset"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pedestrian_stage_duration_seconds",
			Help:    "Time spent writing each staged table",
			Buckets: prometheus.DefBuckets,
		}, []string{"table"}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pedestrian_run_duration_seconds",
			Help: "Duration of the last run",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pedestrian_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}
}

// Registry returns the underlying registry
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStage records the time spent writing one table
func (m *RunMetrics) ObserveStage(table string, d time.Duration) {
	m.stageDuration.WithLabelValues(table).Observe(d.Seconds())
}

// RecordReport records the row counts and defects of a finished run
func (m *RunMetrics) RecordReport(r *stats.Report) {
	m.inputRows.WithLabelValues("sensor_locations").Set(float64(r.Locations))
	m.inputRows.WithLabelValues("hourly_counts").Set(float64(r.Observations))

	m.droppedRows.WithLabelValues(ReasonRejectedSource, "").Add(float64(r.RejectedSourceRows))
	m.droppedRows.WithLabelValues(ReasonMalformedTimestamp, "").Add(float64(r.MalformedTimestamps))

	for _, t := range r.Tables {
		m.stagedRows.WithLabelValues(t.Name).Set(float64(t.Rows))
		if t.UnresolvedDropped > 0 {
			m.droppedRows.WithLabelValues(ReasonUnresolvedSensor, t.Name).Add(float64(t.UnresolvedDropped))
		}
		if t.UndefinedPercentDeltas > 0 {
			m.undefinedPct.WithLabelValues(t.Name).Set(float64(t.UndefinedPercentDeltas))
		}
	}

	if !r.FinishedAt.IsZero() {
		m.runDuration.Set(r.FinishedAt.Sub(r.StartedAt).Seconds())
		m.lastSuccess.Set(float64(r.FinishedAt.Unix()))
	}
}

// WriteTextfile writes the registry in the text exposition format for
// the node exporter textfile collector
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
