package aggregation

import (
	"fmt"
	"math"
	"slices"

	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

// Trend selects which extreme of a period comparison is of interest
type Trend int

const (
	// Decline selects the most negative absolute delta
	Decline Trend = iota
	// Growth selects the most positive absolute delta
	Growth
)

func (t Trend) String() string {
	if t == Growth {
		return "growth"
	}
	return "decline"
}

// ComparisonRecord is the change of a partition's average between two windows
type ComparisonRecord struct {
	PartitionKey  Dimension
	Key           string
	WindowA       string
	WindowB       string
	CountA        int
	CountB        int
	AvgA          float64
	AvgB          float64
	AbsoluteDelta float64 // AvgB - AvgA
	PercentDelta  float64 // NaN when AvgA is zero
}

// PercentDefined reports whether the percent delta could be computed, i.e.
// the window A baseline was non-zero
func (c ComparisonRecord) PercentDefined() bool {
	return !math.IsNaN(c.PercentDelta)
}

// SensorRef returns the sensor id of the record when partitioned by sensor
func (c ComparisonRecord) SensorRef() string {
	if c.PartitionKey == SensorID {
		return c.Key
	}
	return ""
}

// ComparePeriods averages the hourly count per partitionKey within windowA
// and within windowB and joins the two. Partitions present in only one
// window are excluded. Results are ordered by partition key.
func ComparePeriods(
	records []pedestrian.EnrichedObservation,
	partitionKey Dimension,
	windowA, windowB pedestrian.Window,
) ([]ComparisonRecord, error) {
	keys := []Dimension{partitionKey}

	a, err := Aggregate(records, keys, HourlyCount, windowA)
	if err != nil {
		return nil, fmt.Errorf("compare periods: window %s: %w", windowA.Name, err)
	}
	b, err := Aggregate(records, keys, HourlyCount, windowB)
	if err != nil {
		return nil, fmt.Errorf("compare periods: window %s: %w", windowB.Name, err)
	}

	byKey := make(map[string]AggregateRecord, len(b))
	for _, r := range b {
		byKey[r.Key[0]] = r
	}

	result := make([]ComparisonRecord, 0, len(a))
	for _, ra := range a {
		rb, ok := byKey[ra.Key[0]]
		if !ok {
			continue
		}

		delta := rb.AvgHourlyCount - ra.AvgHourlyCount
		percent := math.NaN()
		if ra.AvgHourlyCount != 0 {
			percent = delta / ra.AvgHourlyCount * 100
		}

		result = append(result, ComparisonRecord{
			PartitionKey:  partitionKey,
			Key:           ra.Key[0],
			WindowA:       windowA.Name,
			WindowB:       windowB.Name,
			CountA:        ra.ObservationCount,
			CountB:        rb.ObservationCount,
			AvgA:          ra.AvgHourlyCount,
			AvgB:          rb.AvgHourlyCount,
			AbsoluteDelta: delta,
			PercentDelta:  percent,
		})
	}

	return result, nil
}

// SortByTrend orders comparison records from the most extreme change in the
// trend's direction to the least; equal deltas keep partition key order.
func SortByTrend(records []ComparisonRecord, trend Trend) []ComparisonRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b ComparisonRecord) int {
		if a.AbsoluteDelta != b.AbsoluteDelta {
			if (a.AbsoluteDelta < b.AbsoluteDelta) == (trend == Decline) {
				return -1
			}
			return 1
		}
		return a.PartitionKey.Compare(a.Key, b.Key)
	})
	return sorted
}

// SelectExtremal returns the record with the minimum absolute delta for
// Decline or the maximum for Growth. Ties go to the lowest partition key.
// It returns false when records is empty.
func SelectExtremal(records []ComparisonRecord, trend Trend) (ComparisonRecord, bool) {
	if len(records) == 0 {
		return ComparisonRecord{}, false
	}
	return SortByTrend(records, trend)[0], true
}
