package materialize

import (
	"fmt"
	"slices"

	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

// SensorKeyed is any summary row that references a sensor
type SensorKeyed interface {
	SensorRef() string
}

// Index resolves sensor ids to their (cleansed) locations
type Index map[string]pedestrian.SensorLocation

// NewIndex builds an index over locations. Later duplicates of a sensor id
// replace earlier ones.
func NewIndex(locations []pedestrian.SensorLocation) Index {
	idx := make(Index, len(locations))
	for _, loc := range locations {
		idx[loc.SensorID] = loc
	}
	return idx
}

// Record is a summary row with its sensor location embedded
type Record[T SensorKeyed] struct {
	Summary  T
	Location pedestrian.SensorLocation
}

// Result holds the materialized rows and the rows that could not be resolved
type Result[T SensorKeyed] struct {
	Records    []Record[T]
	Dropped    int
	Unresolved []string // distinct unresolved sensor ids, ascending
}

// Err describes the unresolved references, or returns nil if every row
// resolved
func (r Result[T]) Err() error {
	if r.Dropped == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d rows dropped, sensors %v",
		pedestrian.ErrUnresolvedSensorReference, r.Dropped, r.Unresolved)
}

// Materialize joins each summary row to its sensor location. Rows whose
// sensor id is not in the index are dropped and counted; a single bad
// reference never fails the batch. Input order is preserved.
func Materialize[T SensorKeyed](summaries []T, idx Index) Result[T] {
	res := Result[T]{Records: make([]Record[T], 0, len(summaries))}
	unresolved := make(map[string]bool)

	for _, s := range summaries {
		loc, ok := idx[s.SensorRef()]
		if !ok {
			res.Dropped++
			unresolved[s.SensorRef()] = true
			continue
		}
		res.Records = append(res.Records, Record[T]{Summary: s, Location: loc})
	}

	for id := range unresolved {
		res.Unresolved = append(res.Unresolved, id)
	}
	slices.SortFunc(res.Unresolved, pedestrian.CompareSensorIDs)

	return res
}
