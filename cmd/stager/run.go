package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/smukkama/pedestrian-stats/internal/cache"
	"github.com/smukkama/pedestrian-stats/internal/database"
	"github.com/smukkama/pedestrian-stats/internal/logging"
	"github.com/smukkama/pedestrian-stats/internal/metrics"
	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
	"github.com/smukkama/pedestrian-stats/internal/protocol"
	"github.com/smukkama/pedestrian-stats/internal/queue"
	"github.com/smukkama/pedestrian-stats/internal/source"
	"github.com/smukkama/pedestrian-stats/internal/stats"
	"github.com/smukkama/pedestrian-stats/internal/wrangle"
	"github.com/smukkama/pedestrian-stats/pkg/config"
)

type reportStore interface {
	SaveReport(ctx context.Context, report *stats.Report) error
	LatestReport(ctx context.Context) (*stats.Report, error)
}

// runner performs one load, extract and stage pass
type runner struct {
	cfg       *config.Config
	loader    *source.Loader
	sink      database.Sink
	publisher queue.EventPublisher
	reports   reportStore // nil when Redis is not configured
	metrics   *metrics.RunMetrics
}

func (r *runner) run(ctx context.Context, runID string) (*stats.Report, error) {
	report, err := r.stage(ctx, runID)
	if err != nil {
		if perr := r.publisher.PublishEvents(ctx, protocol.NewRunFailed(runID, err)); perr != nil {
			logging.Warn().Err(perr).Msg("Failed to publish run failure")
		}
		return nil, err
	}

	r.metrics.RecordReport(report)

	if err := r.publisher.PublishEvents(ctx, protocol.NewRunCompleted(report)); err != nil {
		logging.Warn().Err(err).Msg("Failed to publish run report")
	}
	if r.reports != nil {
		r.compareWithPrevious(ctx, report)
		if err := r.reports.SaveReport(ctx, report); err != nil {
			logging.Warn().Err(err).Msg("Failed to store run report")
		}
	}
	return report, nil
}

func (r *runner) stage(ctx context.Context, runID string) (*stats.Report, error) {
	started := time.Now().UTC()
	log := logging.With().Str("run_id", runID).Logger()

	locations, locStats, err := r.loader.LoadLocations(ctx, r.cfg.Source.Sensors)
	if err != nil {
		return nil, fmt.Errorf("failed to load sensor locations: %w", err)
	}
	log.Info().Int("rows", locStats.Rows).Int("rejected", locStats.Rejected).
		Str("source", r.cfg.Source.Sensors.String()).Msg("Loaded sensor locations")
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: no sensor locations in %s", pedestrian.ErrMalformedInput, r.cfg.Source.Sensors)
	}

	observations, obsStats, err := r.loader.LoadObservations(ctx, r.cfg.Source.Counts)
	if err != nil {
		return nil, fmt.Errorf("failed to load hourly counts: %w", err)
	}
	log.Info().Int("rows", obsStats.Rows).Int("rejected", obsStats.Rejected).
		Str("source", r.cfg.Source.Counts.String()).Msg("Loaded hourly counts")
	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: no hourly counts in %s", pedestrian.ErrMalformedInput, r.cfg.Source.Counts)
	}

	enriched, enrichStats, err := wrangle.Enrich(observations)
	if err != nil {
		return nil, err
	}
	if enrichStats.MalformedTimestamps > 0 {
		log.Warn().Int("dropped", enrichStats.MalformedTimestamps).Msg("Dropped observations with malformed timestamps")
	}

	extractor, err := stats.NewExtractor(r.cfg.Stats)
	if err != nil {
		return nil, err
	}

	tables, report, err := extractor.Extract(stats.Snapshot{
		Locations:    wrangle.CleanseLocations(locations),
		Observations: enriched,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract statistics: %w", err)
	}
	report.RunID = runID
	report.StartedAt = started
	report.RejectedSourceRows = locStats.Rejected + obsStats.Rejected
	report.MalformedTimestamps = enrichStats.MalformedTimestamps

	events := make([]*protocol.Event, 0, len(tables))
	for _, tbl := range tables {
		t0 := time.Now()
		if r.cfg.Staging.Mode == config.ModeAppend {
			err = r.sink.AppendTable(ctx, tbl)
		} else {
			err = r.sink.ReplaceTable(ctx, tbl)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", tbl.Name, err)
		}
		r.metrics.ObserveStage(tbl.Name, time.Since(t0))

		tr, _ := report.Table(tbl.Name)
		ev := log.Info().Str("table", tbl.Name).Int("rows", len(tbl.Rows)).Str("mode", r.cfg.Staging.Mode)
		if tr.UnresolvedDropped > 0 {
			ev = ev.Int("unresolved_dropped", tr.UnresolvedDropped).Strs("unresolved_sensors", tr.UnresolvedSensors)
		}
		if tr.UndefinedPercentDeltas > 0 {
			ev = ev.Int("undefined_percent_deltas", tr.UndefinedPercentDeltas)
		}
		ev.Msg("Staged table")

		events = append(events, protocol.NewTableStaged(runID, tbl.Name, len(tbl.Rows), r.cfg.Staging.Mode))
	}

	if err := r.publisher.PublishEvents(ctx, events...); err != nil {
		log.Warn().Err(err).Msg("Failed to publish staged table events")
	}

	logLeaders(report)

	report.FinishedAt = time.Now().UTC()
	log.Info().Int("dropped_rows", report.DroppedRows()).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).Msg("Run complete")
	return report, nil
}

// compareWithPrevious logs the tables whose row count moved since the
// previous stored run
func (r *runner) compareWithPrevious(ctx context.Context, report *stats.Report) {
	prev, err := r.reports.LatestReport(ctx)
	if errors.Is(err, cache.ErrReportNotFound) {
		return
	}
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to read previous run report")
		return
	}

	for _, d := range rowDeltas(prev, report) {
		logging.Info().Str("table", d.table).Str("previous_run_id", prev.RunID).
			Int("rows", d.rows).Int("previous_rows", d.previous).Int("delta", d.rows-d.previous).
			Msg("Row count changed since previous run")
	}
}

type rowDelta struct {
	table    string
	rows     int
	previous int
}

// rowDeltas lists the tables present in both reports whose row count differs
func rowDeltas(prev, cur *stats.Report) []rowDelta {
	var deltas []rowDelta
	for _, t := range cur.Tables {
		before, ok := prev.Table(t.Name)
		if !ok || before.Rows == t.Rows {
			continue
		}
		deltas = append(deltas, rowDelta{table: t.Name, rows: t.Rows, previous: before.Rows})
	}
	return deltas
}

func logLeaders(report *stats.Report) {
	tables := make([]string, 0, len(report.Leaders))
	for name := range report.Leaders {
		tables = append(tables, name)
	}
	slices.Sort(tables)

	for _, name := range tables {
		for _, l := range report.Leaders[name] {
			logging.Info().Str("table", name).Str("partition", l.Partition).Int("rank", l.Rank).
				Str("sensor_id", l.SensorID).Str("sensor_description", l.Description).
				Float64("avg_hourly_count", l.AvgHourlyCount).Msg("Top location")
		}
	}
}
