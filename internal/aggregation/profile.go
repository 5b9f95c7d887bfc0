package aggregation

import "github.com/smukkama/pedestrian-stats/internal/pedestrian"

var (
	// PeakHourKeys profiles each sensor by hour within each day of the week
	PeakHourKeys = []Dimension{SensorID, DayName, HourOfDay}

	// WeekdayWeekendKeys profiles each sensor by hour on weekdays and weekends
	WeekdayWeekendKeys = []Dimension{SensorID, DayType, HourOfDay}
)

// Profile averages hourly counts over time buckets. It is Aggregate over the
// whole snapshot with no window.
func Profile(records []pedestrian.EnrichedObservation, partitionKeys []Dimension) ([]AggregateRecord, error) {
	return Aggregate(records, partitionKeys, HourlyCount, nil)
}
