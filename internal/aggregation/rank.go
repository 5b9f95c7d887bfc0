package aggregation

import (
	"fmt"
	"slices"
	"strings"
)

// Direction is the ordering of a ranking measure
type Direction int

const (
	// Descending gives rank 1 to the highest value
	Descending Direction = iota
	// Ascending gives rank 1 to the lowest value
	Ascending
)

// OrderKey extracts the ranking measure of a record
type OrderKey func(r AggregateRecord) float64

// ByAvgHourlyCount ranks records by their average hourly count
func ByAvgHourlyCount(r AggregateRecord) float64 {
	return r.AvgHourlyCount
}

// RankedRecord is an aggregate record with its dense rank inside its partition
type RankedRecord struct {
	AggregateRecord
	Rank int
}

// Rank assigns a dense rank to every record within the scope defined by
// partitionKeys, which must be a subset of the records' dimensions. Equal
// values share a rank and the next distinct value takes the following
// integer. Records with equal values are ordered by ascending sensor id, then
// by the remaining dimensions. The result is ordered by partition, then rank.
func Rank(records []AggregateRecord, partitionKeys []Dimension, orderKey OrderKey, direction Direction) ([]RankedRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if orderKey == nil {
		return nil, fmt.Errorf("rank: no order key given")
	}

	dims := records[0].Dimensions
	for _, p := range partitionKeys {
		if indexOf(dims, p) < 0 {
			return nil, fmt.Errorf("rank: partition dimension %q is not a grouping dimension", p)
		}
	}

	// dimensions that distinguish records inside one partition, sensor id first
	var inner []Dimension
	if indexOf(dims, SensorID) >= 0 && indexOf(partitionKeys, SensorID) < 0 {
		inner = append(inner, SensorID)
	}
	for _, d := range dims {
		if d != SensorID && indexOf(partitionKeys, d) < 0 {
			inner = append(inner, d)
		}
	}

	partitionOf := func(r AggregateRecord) []string {
		key := make([]string, len(partitionKeys))
		for i, p := range partitionKeys {
			key[i] = r.Value(p)
		}
		return key
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b AggregateRecord) int {
		if c := compareKeys(partitionKeys, partitionOf(a), partitionOf(b)); c != 0 {
			return c
		}

		av, bv := orderKey(a), orderKey(b)
		if av != bv {
			if (av > bv) == (direction == Descending) {
				return -1
			}
			return 1
		}

		for _, d := range inner {
			if c := d.Compare(a.Value(d), b.Value(d)); c != 0 {
				return c
			}
		}
		return 0
	})

	ranked := make([]RankedRecord, len(sorted))
	var prevPartition string
	var prevValue float64
	rank := 0

	for i, r := range sorted {
		partition := strings.Join(partitionOf(r), "\x1f")
		value := orderKey(r)

		switch {
		case i == 0 || partition != prevPartition:
			rank = 1
		case value != prevValue:
			rank++
		}

		ranked[i] = RankedRecord{AggregateRecord: r, Rank: rank}
		prevPartition = partition
		prevValue = value
	}

	return ranked, nil
}

// TopN returns the records ranked n or better. Dense ranking means a
// partition may contribute more than n records when there are ties.
func TopN(records []RankedRecord, n int) []RankedRecord {
	if n <= 0 {
		return records
	}

	top := make([]RankedRecord, 0, len(records))
	for _, r := range records {
		if r.Rank <= n {
			top = append(top, r)
		}
	}
	return top
}
