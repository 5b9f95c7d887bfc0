package aggregation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

// Dimension names an attribute of an enriched observation that records can
// be grouped by
type Dimension string

const (
	SensorID  Dimension = "sensor_id"
	DateKey   Dimension = "date_key"
	Year      Dimension = "year"
	Month     Dimension = "month"
	DayName   Dimension = "day_name"
	DayType   Dimension = "day_type"
	HourOfDay Dimension = "hour_of_day"
)

var dayOrder = map[string]int{}
var monthOrder = map[string]int{}

func init() {
	// Monday first
	for i := 0; i < 7; i++ {
		dayOrder[time.Weekday((i+1)%7).String()] = i
	}
	for m := time.January; m <= time.December; m++ {
		monthOrder[m.String()] = int(m)
	}
}

// Valid reports whether d is a known dimension
func (d Dimension) Valid() bool {
	switch d {
	case SensorID, DateKey, Year, Month, DayName, DayType, HourOfDay:
		return true
	}
	return false
}

// Value extracts the dimension value from an enriched observation
func (d Dimension) Value(o *pedestrian.EnrichedObservation) string {
	switch d {
	case SensorID:
		return o.SensorID
	case DateKey:
		return o.DateKey
	case Year:
		return strconv.Itoa(o.Year)
	case Month:
		return o.Month
	case DayName:
		return o.DayName
	case DayType:
		return o.DayType
	case HourOfDay:
		return strconv.Itoa(o.HourOfDay)
	}
	return ""
}

// Compare orders two values of this dimension: calendar order for days and
// months, numeric order for hours, years and integer sensor ids, lexical
// order otherwise.
func (d Dimension) Compare(a, b string) int {
	switch d {
	case SensorID:
		return pedestrian.CompareSensorIDs(a, b)
	case DayName:
		return compareOrdered(dayOrder, a, b)
	case Month:
		return compareOrdered(monthOrder, a, b)
	case HourOfDay, Year:
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		if aerr == nil && berr == nil {
			return ai - bi
		}
	}
	return strings.Compare(a, b)
}

func compareOrdered(order map[string]int, a, b string) int {
	ai, aok := order[a]
	bi, bok := order[b]
	if aok && bok {
		return ai - bi
	}
	return strings.Compare(a, b)
}

func validateDimensions(dims []Dimension) error {
	if len(dims) == 0 {
		return fmt.Errorf("no grouping dimensions given")
	}
	seen := make(map[Dimension]bool, len(dims))
	for _, d := range dims {
		if !d.Valid() {
			return fmt.Errorf("unknown dimension %q", d)
		}
		if seen[d] {
			return fmt.Errorf("duplicate dimension %q", d)
		}
		seen[d] = true
	}
	return nil
}

func indexOf(dims []Dimension, d Dimension) int {
	for i, x := range dims {
		if x == d {
			return i
		}
	}
	return -1
}
