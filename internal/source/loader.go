package source

import (
	"context"
	"fmt"
	"os"

	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
)

// Source locates a dataset: a local CSV file takes precedence over a URL
type Source struct {
	URL  string
	File string
}

func (s Source) String() string {
	if s.File != "" {
		return s.File
	}
	return s.URL
}

// Loader reads both datasets into memory
type Loader struct {
	client *Client
}

// NewLoader creates a new loader
func NewLoader(client *Client) *Loader {
	return &Loader{client: client}
}

// LoadLocations reads and decodes the sensor location dataset
func (l *Loader) LoadLocations(ctx context.Context, src Source) ([]pedestrian.SensorLocation, DecodeStats, error) {
	header, rows, err := l.read(ctx, src)
	if err != nil {
		return nil, DecodeStats{}, err
	}
	locations, stats, err := DecodeLocations(header, rows)
	if err != nil {
		return nil, stats, fmt.Errorf("sensor locations from %s: %w", src, err)
	}
	return locations, stats, nil
}

// LoadObservations reads and decodes the hourly counts dataset
func (l *Loader) LoadObservations(ctx context.Context, src Source) ([]pedestrian.Observation, DecodeStats, error) {
	header, rows, err := l.read(ctx, src)
	if err != nil {
		return nil, DecodeStats{}, err
	}
	observations, stats, err := DecodeObservations(header, rows)
	if err != nil {
		return nil, stats, fmt.Errorf("hourly counts from %s: %w", src, err)
	}
	return observations, stats, nil
}

func (l *Loader) read(ctx context.Context, src Source) ([]string, [][]string, error) {
	switch {
	case src.File != "":
		return readFile(src.File)
	case src.URL != "":
		return l.client.FetchAll(ctx, src.URL)
	default:
		return nil, nil, fmt.Errorf("no source configured")
	}
}

func readFile(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", path)
	}
	return rows[0], rows[1:], nil
}
