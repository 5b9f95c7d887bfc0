package stats

import (
	"strconv"
	"strings"

	"github.com/smukkama/pedestrian-stats/internal/aggregation"
	"github.com/smukkama/pedestrian-stats/internal/database"
	"github.com/smukkama/pedestrian-stats/internal/materialize"
	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

// Names of the staged tables
const (
	TableSensor              = "SENSOR"
	TablePedestrianPerHour   = "PEDESTRIAN_PER_HOUR"
	TableTopNByDay           = "TOP_N_LOCATIONS_BY_DAY"
	TableTopNByMonth         = "TOP_N_LOCATIONS_BY_MONTH"
	TableDeclineLockdown     = "HOURLY_COUNTS_DECLINE_LOCKDOWN"
	TableGrowthAfterLockdown = "HOURLY_COUNTS_GROWTH_AFTER_LOCKDOWN"
	TableByDayTime           = "AVG_HOURLY_COUNTS_BY_DAY_TIME"
	TableWeekdayWeekend      = "AVG_HOURLY_COUNTS_WEEKDAY_WEEKEND"
)

var locationColumns = []database.Column{
	{Name: "sensor_description", Type: database.Text},
	{Name: "sensor_name", Type: database.Text},
	{Name: "latitude", Type: database.Real},
	{Name: "longitude", Type: database.Real},
	{Name: "location", Type: database.Text},
}

func locationValues(loc pedestrian.SensorLocation) []any {
	return []any{loc.Description, loc.Name, loc.Latitude, loc.Longitude, loc.Location}
}

func withLocation(columns ...database.Column) []database.Column {
	return append(columns, locationColumns...)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// SensorTable stages the cleansed sensor locations
func SensorTable(locations []pedestrian.SensorLocation) *database.Table {
	tbl := database.NewTable(TableSensor,
		database.Column{Name: "sensor_id", Type: database.Text},
		database.Column{Name: "sensor_description", Type: database.Text},
		database.Column{Name: "sensor_name", Type: database.Text},
		database.Column{Name: "installation_date", Type: database.Text},
		database.Column{Name: "status", Type: database.Text},
		database.Column{Name: "note", Type: database.Text},
		database.Column{Name: "direction_1", Type: database.Text},
		database.Column{Name: "direction_2", Type: database.Text},
		database.Column{Name: "latitude", Type: database.Real},
		database.Column{Name: "longitude", Type: database.Real},
		database.Column{Name: "location", Type: database.Text},
	)

	for _, l := range locations {
		tbl.Append(l.SensorID, l.Description, l.Name, nullable(l.InstallationDate), nullable(l.Status),
			nullable(l.Note), nullable(l.Direction1), nullable(l.Direction2), l.Latitude, l.Longitude, l.Location)
	}
	return tbl
}

// ObservationTable stages the enriched hourly counts
func ObservationTable(observations []pedestrian.EnrichedObservation) *database.Table {
	tbl := database.NewTable(TablePedestrianPerHour,
		database.Column{Name: "sensor_id", Type: database.Text},
		database.Column{Name: "date_time", Type: database.Text},
		database.Column{Name: "date_key", Type: database.Text},
		database.Column{Name: "year", Type: database.Integer},
		database.Column{Name: "month", Type: database.Text},
		database.Column{Name: "day_name", Type: database.Text},
		database.Column{Name: "day_type", Type: database.Text},
		database.Column{Name: "hour_of_day", Type: database.Integer},
		database.Column{Name: "count", Type: database.Integer},
	)

	for _, o := range observations {
		tbl.Append(o.SensorID, o.Timestamp.Format("2006-01-02T15:04:05"), o.DateKey, o.Year, o.Month,
			o.DayName, o.DayType, o.HourOfDay, o.Count)
	}
	return tbl
}

// TopNLocations ranks every location within each day of the week or each
// calendar month by average hourly count
func TopNLocations(
	observations []pedestrian.EnrichedObservation,
	idx materialize.Index,
	g Granularity,
	topN int,
) (*database.Table, TableReport, []Leader, error) {
	period := g.dimension()

	agg, err := aggregation.Aggregate(observations, []aggregation.Dimension{period, aggregation.SensorID}, aggregation.HourlyCount, nil)
	if err != nil {
		return nil, TableReport{}, nil, err
	}
	ranked, err := aggregation.Rank(agg, []aggregation.Dimension{period}, aggregation.ByAvgHourlyCount, aggregation.Descending)
	if err != nil {
		return nil, TableReport{}, nil, err
	}

	res := materialize.Materialize(ranked, idx)

	tbl := database.NewTable(g.table(), withLocation(
		database.Column{Name: string(period), Type: database.Text},
		database.Column{Name: "sensor_id", Type: database.Text},
		database.Column{Name: "observation_count", Type: database.Integer},
		database.Column{Name: "avg_hourly_count", Type: database.Real},
		database.Column{Name: "rank", Type: database.Integer},
	)...)

	resolved := make([]aggregation.RankedRecord, 0, len(res.Records))
	for _, m := range res.Records {
		r := m.Summary
		tbl.Append(append([]any{r.Value(period), r.SensorRef(), r.ObservationCount, r.AvgHourlyCount, r.Rank},
			locationValues(m.Location)...)...)
		resolved = append(resolved, r)
	}

	var leaders []Leader
	for _, r := range aggregation.TopN(resolved, topN) {
		leaders = append(leaders, Leader{
			Partition:      r.Value(period),
			Rank:           r.Rank,
			SensorID:       r.SensorRef(),
			Description:    idx[r.SensorRef()].Description,
			AvgHourlyCount: r.AvgHourlyCount,
		})
	}

	return tbl, tableReport(tbl, res.Dropped, res.Unresolved), leaders, nil
}

// PeriodChange compares each location's average hourly count between two
// windows. Decline stages the lockdown drop, Growth the recovery after it.
func PeriodChange(
	observations []pedestrian.EnrichedObservation,
	idx materialize.Index,
	name string,
	windowA, windowB pedestrian.Window,
	trend aggregation.Trend,
	output ComparisonOutput,
) (*database.Table, TableReport, error) {
	cmp, err := aggregation.ComparePeriods(observations, aggregation.SensorID, windowA, windowB)
	if err != nil {
		return nil, TableReport{}, err
	}

	// the extremal location is picked among resolved sensors only
	res := materialize.Materialize(cmp, idx)
	resolved := make([]aggregation.ComparisonRecord, 0, len(res.Records))
	for _, m := range res.Records {
		resolved = append(resolved, m.Summary)
	}

	resolved = aggregation.SortByTrend(resolved, trend)
	if output == Extremal {
		if best, ok := aggregation.SelectExtremal(resolved, trend); ok {
			resolved = []aggregation.ComparisonRecord{best}
		}
	}

	a, b := columnPrefix(windowA.Name), columnPrefix(windowB.Name)
	tbl := database.NewTable(name, withLocation(
		database.Column{Name: "sensor_id", Type: database.Text},
		database.Column{Name: a + "_observation_count", Type: database.Integer},
		database.Column{Name: a + "_avg_hourly_count", Type: database.Real},
		database.Column{Name: b + "_observation_count", Type: database.Integer},
		database.Column{Name: b + "_avg_hourly_count", Type: database.Real},
		database.Column{Name: "absolute_delta", Type: database.Real},
		database.Column{Name: "percent_delta", Type: database.Real},
	)...)

	undefined := 0
	for _, c := range resolved {
		if !c.PercentDefined() {
			undefined++
		}
		tbl.Append(append([]any{c.Key, c.CountA, c.AvgA, c.CountB, c.AvgB, c.AbsoluteDelta, c.PercentDelta},
			locationValues(idx[c.SensorRef()])...)...)
	}

	report := tableReport(tbl, res.Dropped, res.Unresolved)
	report.UndefinedPercentDeltas = undefined
	return tbl, report, nil
}

// TimeProfile averages each location's hourly counts per hour of the day
// within each day of the week (PeakHourKeys) or each day type
// (WeekdayWeekendKeys)
func TimeProfile(
	observations []pedestrian.EnrichedObservation,
	idx materialize.Index,
	name string,
	keys []aggregation.Dimension,
) (*database.Table, TableReport, error) {
	agg, err := aggregation.Profile(observations, keys)
	if err != nil {
		return nil, TableReport{}, err
	}

	res := materialize.Materialize(agg, idx)

	columns := make([]database.Column, 0, len(keys)+2)
	for _, d := range keys {
		ct := database.Text
		if d == aggregation.HourOfDay {
			ct = database.Integer
		}
		columns = append(columns, database.Column{Name: string(d), Type: ct})
	}
	columns = append(columns,
		database.Column{Name: "observation_count", Type: database.Integer},
		database.Column{Name: "avg_hourly_count", Type: database.Real},
	)
	tbl := database.NewTable(name, withLocation(columns...)...)

	for _, m := range res.Records {
		r := m.Summary
		row := make([]any, 0, len(tbl.Columns))
		for i, d := range keys {
			if d == aggregation.HourOfDay {
				row = append(row, hourValue(r.Key[i]))
				continue
			}
			row = append(row, r.Key[i])
		}
		row = append(row, r.ObservationCount, r.AvgHourlyCount)
		tbl.Append(append(row, locationValues(m.Location)...)...)
	}

	return tbl, tableReport(tbl, res.Dropped, res.Unresolved), nil
}

func hourValue(s string) any {
	h, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return h
}

func columnPrefix(windowName string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(windowName)), "-", "_")
}

func tableReport(tbl *database.Table, dropped int, unresolved []string) TableReport {
	return TableReport{
		Name:              tbl.Name,
		Rows:              len(tbl.Rows),
		UnresolvedDropped: dropped,
		UnresolvedSensors: unresolved,
	}
}
