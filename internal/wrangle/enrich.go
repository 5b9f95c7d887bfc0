package wrangle

import (
	"fmt"
	"strings"
	"time"

	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

// timestampLayouts are the formats the counting system has published
// date_time in over the years. Values are wall-clock times in Melbourne and
// are never converted between zones.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.RFC3339Nano,
	time.RFC3339,
	"01/02/2006 03:04:05 PM",
	"January 02, 2006 03:04:05 PM",
}

// EnrichStats counts the outcome of an enrichment pass
type EnrichStats struct {
	Input               int
	Enriched            int
	MalformedTimestamps int
}

// ParseTimestamp parses an observation timestamp in any known layout
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", pedestrian.ErrMalformedTimestamp, raw)
}

// EnrichObservation derives the calendar attributes of a single observation.
// The result depends on the timestamp only.
func EnrichObservation(o pedestrian.Observation) (pedestrian.EnrichedObservation, error) {
	ts, err := ParseTimestamp(o.DateTime)
	if err != nil {
		return pedestrian.EnrichedObservation{}, fmt.Errorf("sensor %s: %w", o.SensorID, err)
	}

	return pedestrian.EnrichedObservation{
		Observation: o,
		Timestamp:   ts,
		DateKey:     ts.Format(pedestrian.DateKeyLayout),
		Year:        ts.Year(),
		Month:       ts.Month().String(),
		DayName:     ts.Weekday().String(),
		DayType:     DayType(ts.Weekday().String()),
		HourOfDay:   ts.Hour(),
	}, nil
}

// DayType classifies a day name as weekday or weekend
func DayType(dayName string) string {
	if dayName == time.Saturday.String() || dayName == time.Sunday.String() {
		return pedestrian.DayTypeWeekend
	}
	return pedestrian.DayTypeWeekday
}

// Enrich maps observations one-to-one onto enriched observations. Records
// with malformed timestamps are dropped and counted. A non-empty input in
// which no record survives is rejected as a whole.
func Enrich(observations []pedestrian.Observation) ([]pedestrian.EnrichedObservation, EnrichStats, error) {
	stats := EnrichStats{Input: len(observations)}
	enriched := make([]pedestrian.EnrichedObservation, 0, len(observations))

	for _, o := range observations {
		e, err := EnrichObservation(o)
		if err != nil {
			stats.MalformedTimestamps++
			continue
		}
		enriched = append(enriched, e)
	}
	stats.Enriched = len(enriched)

	if stats.Input > 0 && stats.Enriched == 0 {
		return nil, stats, fmt.Errorf("%w: all %d observations have malformed timestamps",
			pedestrian.ErrMalformedInput, stats.Input)
	}

	return enriched, stats, nil
}
