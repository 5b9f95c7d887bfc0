package stats

import (
	"fmt"

	"github.com/smukkama/pedestrian-stats/internal/aggregation"
	"github.com/smukkama/pedestrian-stats/internal/database"
	"github.com/smukkama/pedestrian-stats/internal/materialize"
	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

// Snapshot is the immutable input of one extraction run
type Snapshot struct {
	Locations    []pedestrian.SensorLocation // cleansed
	Observations []pedestrian.EnrichedObservation
}

// Extractor derives every staged table from a snapshot
type Extractor struct {
	cfg Config
}

// NewExtractor creates a new extractor
func NewExtractor(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid statistics config: %w", err)
	}
	return &Extractor{cfg: cfg}, nil
}

// Extract builds the base tables and the derived statistics. Every table is
// a pure function of the snapshot, so the order below is not significant.
// The returned report carries row counts and row-level defects per table.
func (e *Extractor) Extract(snap Snapshot) ([]*database.Table, *Report, error) {
	report := &Report{
		Locations:    len(snap.Locations),
		Observations: len(snap.Observations),
		Leaders:      make(map[string][]Leader),
	}

	var tables []*database.Table
	add := func(tbl *database.Table, tr TableReport) {
		tables = append(tables, tbl)
		report.Tables = append(report.Tables, tr)
	}

	sensors := SensorTable(snap.Locations)
	add(sensors, TableReport{Name: sensors.Name, Rows: len(sensors.Rows)})

	counts := ObservationTable(snap.Observations)
	add(counts, TableReport{Name: counts.Name, Rows: len(counts.Rows)})

	idx := materialize.NewIndex(snap.Locations)

	for _, g := range e.cfg.Granularities {
		tbl, tr, leaders, err := TopNLocations(snap.Observations, idx, g, e.cfg.TopN)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", g.table(), err)
		}
		add(tbl, tr)
		report.Leaders[tbl.Name] = leaders
	}

	comparisons := []struct {
		name             string
		windowA, windowB pedestrian.Window
		trend            aggregation.Trend
	}{
		{TableDeclineLockdown, e.cfg.Precovid, e.cfg.Lockdown, aggregation.Decline},
		{TableGrowthAfterLockdown, e.cfg.Lockdown, e.cfg.PostLockdown, aggregation.Growth},
	}
	for _, c := range comparisons {
		tbl, tr, err := PeriodChange(snap.Observations, idx, c.name, c.windowA, c.windowB, c.trend, e.cfg.ComparisonOutput)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", c.name, err)
		}
		add(tbl, tr)
	}

	profiles := []struct {
		name string
		keys []aggregation.Dimension
	}{
		{TableByDayTime, aggregation.PeakHourKeys},
		{TableWeekdayWeekend, aggregation.WeekdayWeekendKeys},
	}
	for _, p := range profiles {
		tbl, tr, err := TimeProfile(snap.Observations, idx, p.name, p.keys)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", p.name, err)
		}
		add(tbl, tr)
	}

	return tables, report, nil
}
