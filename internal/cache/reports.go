package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/smukkama/pedestrian-stats/internal/stats"
)

const keyPrefix = "pedestrian"

// ErrReportNotFound is returned when no report is stored for a run
var ErrReportNotFound = errors.New("report not found")

// ReportStore keeps run reports in Redis so the outcome of the last runs
// can be inspected without querying the staging store
type ReportStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewReportStore creates a new report store. A zero ttl keeps reports
// until evicted.
func NewReportStore(redisClient *redis.Client, ttl time.Duration) *ReportStore {
	return &ReportStore{redis: redisClient, ttl: ttl}
}

func runKey(runID string) string {
	return fmt.Sprintf("%s:run:%s", keyPrefix, runID)
}

func latestKey() string {
	return keyPrefix + ":latest"
}

// SaveReport stores the report and marks it as the latest run
func (s *ReportStore) SaveReport(ctx context.Context, report *stats.Report) error {
	if report.RunID == "" {
		return fmt.Errorf("report has no run id")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, runKey(report.RunID), data, s.ttl)
		pipe.Set(ctx, latestKey(), report.RunID, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save report in Redis: %w", err)
	}
	return nil
}

// GetReport retrieves the report of a run
func (s *ReportStore) GetReport(ctx context.Context, runID string) (*stats.Report, error) {
	data, err := s.redis.Get(ctx, runKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report from Redis: %w", err)
	}

	var report stats.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// LatestReport retrieves the report of the most recent run
func (s *ReportStore) LatestReport(ctx context.Context) (*stats.Report, error) {
	runID, err := s.redis.Get(ctx, latestKey()).Result()
	if err == redis.Nil {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run from Redis: %w", err)
	}
	return s.GetReport(ctx, runID)
}
