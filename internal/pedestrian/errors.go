package pedestrian

import "errors"

var (
	// ErrMalformedTimestamp marks an observation whose timestamp cannot be parsed.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrUnresolvedSensorReference marks a summary row whose sensor_id has no
	// matching sensor location.
	ErrUnresolvedSensorReference = errors.New("unresolved sensor reference")

	// ErrMalformedInput is returned when an entire input collection is unusable,
	// e.g. every observation carries a malformed timestamp.
	ErrMalformedInput = errors.New("malformed input collection")

	// ErrMissingColumn is returned when a source file lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
)
