package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

// DecodeStats counts the outcome of decoding a dataset
type DecodeStats struct {
	Rows     int
	Rejected int
}

type columns map[string]int

func indexColumns(header []string) columns {
	idx := make(columns, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

// lookup returns the position of the first present alias
func (c columns) lookup(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if i, ok := c[a]; ok {
			return i, true
		}
	}
	return -1, false
}

func (c columns) require(aliases ...string) (int, error) {
	i, ok := c.lookup(aliases...)
	if !ok {
		return -1, fmt.Errorf("%w: %s", pedestrian.ErrMissingColumn, aliases[0])
	}
	return i, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func optionalFloat(row []string, i int) *float64 {
	s := field(row, i)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// DecodeLocations maps sensor location CSV records onto SensorLocations.
// Rows without a sensor id are rejected. The location text is kept raw;
// cleansing is a separate pass.
func DecodeLocations(header []string, rows [][]string) ([]pedestrian.SensorLocation, DecodeStats, error) {
	cols := indexColumns(header)

	idCol, err := cols.require("sensor_id")
	if err != nil {
		return nil, DecodeStats{}, err
	}
	descCol, err := cols.require("sensor_description", "sensor_name")
	if err != nil {
		return nil, DecodeStats{}, err
	}
	nameCol, _ := cols.lookup("sensor_name")
	installCol, _ := cols.lookup("installation_date")
	statusCol, _ := cols.lookup("status")
	noteCol, _ := cols.lookup("note")
	dir1Col, _ := cols.lookup("direction_1")
	dir2Col, _ := cols.lookup("direction_2")
	latCol, _ := cols.lookup("latitude")
	lonCol, _ := cols.lookup("longitude")
	locCol, _ := cols.lookup("location")

	stats := DecodeStats{Rows: len(rows)}
	locations := make([]pedestrian.SensorLocation, 0, len(rows))

	for _, row := range rows {
		id := field(row, idCol)
		if id == "" {
			stats.Rejected++
			continue
		}

		locations = append(locations, pedestrian.SensorLocation{
			SensorID:         id,
			Description:      field(row, descCol),
			Name:             field(row, nameCol),
			InstallationDate: field(row, installCol),
			Status:           field(row, statusCol),
			Note:             field(row, noteCol),
			Direction1:       field(row, dir1Col),
			Direction2:       field(row, dir2Col),
			Latitude:         optionalFloat(row, latCol),
			Longitude:        optionalFloat(row, lonCol),
			// raw, may carry control characters
			Location: rawField(row, locCol),
		})
	}

	if err := allRejected("sensor location", stats); err != nil {
		return nil, stats, err
	}
	return locations, stats, nil
}

func rawField(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// DecodeObservations maps hourly count CSV records onto Observations. Rows
// without a sensor id or with a missing, non-integer or negative count are
// rejected. Timestamps are validated later, during enrichment.
func DecodeObservations(header []string, rows [][]string) ([]pedestrian.Observation, DecodeStats, error) {
	cols := indexColumns(header)

	idCol, err := cols.require("sensor_id")
	if err != nil {
		return nil, DecodeStats{}, err
	}
	tsCol, err := cols.require("date_time", "sensing_date_time")
	if err != nil {
		return nil, DecodeStats{}, err
	}
	countCol, err := cols.require("hourly_counts", "hourly_count", "count")
	if err != nil {
		return nil, DecodeStats{}, err
	}

	stats := DecodeStats{Rows: len(rows)}
	observations := make([]pedestrian.Observation, 0, len(rows))

	for _, row := range rows {
		id := field(row, idCol)
		count, err := strconv.Atoi(field(row, countCol))
		if id == "" || err != nil || count < 0 {
			stats.Rejected++
			continue
		}

		observations = append(observations, pedestrian.Observation{
			SensorID: id,
			DateTime: field(row, tsCol),
			Count:    count,
		})
	}

	if err := allRejected("hourly count", stats); err != nil {
		return nil, stats, err
	}
	return observations, stats, nil
}

// allRejected fails a non-empty dataset in which no row survived decoding
func allRejected(dataset string, stats DecodeStats) error {
	if stats.Rows > 0 && stats.Rejected == stats.Rows {
		return fmt.Errorf("%w: all %d %s rows rejected", pedestrian.ErrMalformedInput, stats.Rows, dataset)
	}
	return nil
}
