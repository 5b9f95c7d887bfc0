package aggregation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

// Measure selects the numeric field of an observation to average
type Measure func(o *pedestrian.EnrichedObservation) float64

// HourlyCount is the pedestrian count of an observation
func HourlyCount(o *pedestrian.EnrichedObservation) float64 {
	return float64(o.Count)
}

// WindowFilter restricts aggregation to observations on matching dates
type WindowFilter interface {
	Contains(dateKey string) bool
}

// AggregateRecord is the average measure of one partition
type AggregateRecord struct {
	Dimensions       []Dimension
	Key              []string // values aligned with Dimensions
	ObservationCount int
	AvgHourlyCount   float64
}

// Value returns the partition value for dimension d, or "" if the record is
// not grouped by d
func (r AggregateRecord) Value(d Dimension) string {
	if i := indexOf(r.Dimensions, d); i >= 0 {
		return r.Key[i]
	}
	return ""
}

// SensorRef returns the sensor id of the partition
func (r AggregateRecord) SensorRef() string {
	return r.Value(SensorID)
}

type accumulator struct {
	key   []string
	sum   float64
	count int
}

// Aggregate groups records by groupKeys and averages measure over each
// partition. When filter is non-nil only observations whose date key it
// contains contribute. Partitions without contributing observations are
// absent from the result. Results are ordered by key, dimension by dimension.
func Aggregate(
	records []pedestrian.EnrichedObservation,
	groupKeys []Dimension,
	measure Measure,
	filter WindowFilter,
) ([]AggregateRecord, error) {
	if err := validateDimensions(groupKeys); err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	if measure == nil {
		return nil, fmt.Errorf("aggregate: no measure given")
	}

	partitions := make(map[string]*accumulator)
	values := make([]string, len(groupKeys))

	for i := range records {
		o := &records[i]
		if filter != nil && !filter.Contains(o.DateKey) {
			continue
		}

		for j, d := range groupKeys {
			values[j] = d.Value(o)
		}
		id := strings.Join(values, "\x1f")

		acc, ok := partitions[id]
		if !ok {
			acc = &accumulator{key: slices.Clone(values)}
			partitions[id] = acc
		}
		acc.sum += measure(o)
		acc.count++
	}

	dims := slices.Clone(groupKeys)
	result := make([]AggregateRecord, 0, len(partitions))
	for _, acc := range partitions {
		result = append(result, AggregateRecord{
			Dimensions:       dims,
			Key:              acc.key,
			ObservationCount: acc.count,
			AvgHourlyCount:   acc.sum / float64(acc.count),
		})
	}

	slices.SortFunc(result, func(a, b AggregateRecord) int {
		return compareKeys(dims, a.Key, b.Key)
	})

	return result, nil
}

func compareKeys(dims []Dimension, a, b []string) int {
	for i, d := range dims {
		if c := d.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}
