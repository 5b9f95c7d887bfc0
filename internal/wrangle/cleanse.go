package wrangle

import (
	"strings"
	"unicode"

	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

// CleanseText replaces embedded control characters (newlines, tabs, ...)
// with spaces, collapses runs of whitespace and trims the result.
func CleanseText(s string) string {
	if s == "" {
		return s
	}

	mapped := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)

	return strings.Join(strings.Fields(mapped), " ")
}

// CleanseLocations returns a copy of the sensor locations with the location
// text normalized. It never fails.
func CleanseLocations(locations []pedestrian.SensorLocation) []pedestrian.SensorLocation {
	cleansed := make([]pedestrian.SensorLocation, len(locations))
	for i, loc := range locations {
		loc.Location = CleanseText(loc.Location)
		cleansed[i] = loc
	}
	return cleansed
}
