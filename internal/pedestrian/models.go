package pedestrian

import "time"

// SensorLocation describes a pedestrian counting sensor installation
type SensorLocation struct {
	SensorID         string
	Description      string
	Name             string
	InstallationDate string
	Status           string
	Note             string
	Direction1       string
	Direction2       string
	Latitude         *float64
	Longitude        *float64
	Location         string
}

// Observation is one hourly pedestrian count as delivered by the source
type Observation struct {
	SensorID string
	DateTime string // raw timestamp, parsed during enrichment
	Count    int
}

// EnrichedObservation is an Observation with its derived calendar attributes
type EnrichedObservation struct {
	Observation
	Timestamp time.Time
	DateKey   string // yyyymmdd
	Year      int
	Month     string // calendar month name, e.g. "January"
	DayName   string // Monday..Sunday
	DayType   string
	HourOfDay int
}

const (
	DayTypeWeekday = "weekday"
	DayTypeWeekend = "weekend"
)

// DateKeyLayout is the time layout of a date key
const DateKeyLayout = "20060102"
