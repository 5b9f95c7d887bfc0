package stats

import (
	"fmt"
	"strings"

	"github.com/smukkama/pedestrian-stats/internal/aggregation"
	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

// Granularity is the time period the top-N statistics rank locations by
type Granularity string

const (
	ByDay   Granularity = "day"
	ByMonth Granularity = "month"
)

// ParseGranularity parses "day" or "month"
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case ByDay, ByMonth:
		return g, nil
	}
	return "", fmt.Errorf("invalid granularity %q (expected day or month)", s)
}

func (g Granularity) dimension() aggregation.Dimension {
	if g == ByMonth {
		return aggregation.Month
	}
	return aggregation.DayName
}

func (g Granularity) table() string {
	if g == ByMonth {
		return TableTopNByMonth
	}
	return TableTopNByDay
}

// ComparisonOutput selects which rows of a period comparison are staged
type ComparisonOutput string

const (
	// Extremal stages only the most declined or most grown location
	Extremal ComparisonOutput = "extremal"
	// AllRows stages every compared location, most extreme first
	AllRows ComparisonOutput = "all"
)

// ParseComparisonOutput parses "extremal" or "all"
func ParseComparisonOutput(s string) (ComparisonOutput, error) {
	switch o := ComparisonOutput(strings.ToLower(strings.TrimSpace(s))); o {
	case Extremal, AllRows:
		return o, nil
	}
	return "", fmt.Errorf("invalid comparison output %q (expected extremal or all)", s)
}

// Config parameterizes the statistics
type Config struct {
	Precovid     pedestrian.Window
	Lockdown     pedestrian.Window
	PostLockdown pedestrian.Window

	// TopN bounds the leaders reported per partition; ranks are computed
	// and staged for every location regardless
	TopN int

	Granularities    []Granularity
	ComparisonOutput ComparisonOutput
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	for _, w := range []pedestrian.Window{c.Precovid, c.Lockdown, c.PostLockdown} {
		if w.Name == "" || len(w.Ranges) == 0 {
			return fmt.Errorf("window %q has no ranges", w.Name)
		}
	}
	if c.TopN < 0 {
		return fmt.Errorf("top N must not be negative, got %d", c.TopN)
	}
	for _, g := range c.Granularities {
		if _, err := ParseGranularity(string(g)); err != nil {
			return err
		}
	}
	if _, err := ParseComparisonOutput(string(c.ComparisonOutput)); err != nil {
		return err
	}
	return nil
}
