package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/smukkama/pedestrian-stats/internal/cache"
	"github.com/smukkama/pedestrian-stats/internal/database"
	"github.com/smukkama/pedestrian-stats/internal/logging"
	"github.com/smukkama/pedestrian-stats/internal/metrics"
	"github.com/smukkama/pedestrian-stats/internal/queue"
	"github.com/smukkama/pedestrian-stats/internal/source"
	"github.com/smukkama/pedestrian-stats/pkg/config"
)

func main() {
	os.Exit(stageOnce())
}

// stageOnce runs a single staging pass and returns the process exit code
func stageOnce() int {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Log)

	runID := uuid.NewString()
	logging.Info().Str("run_id", runID).Str("driver", cfg.Staging.Driver).
		Str("mode", cfg.Staging.Mode).Msg("Starting pedestrian statistics staging")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Staging.Driver, cfg.Staging.DSN)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to staging database")
	}
	defer db.Close()

	r := &runner{
		cfg:       cfg,
		loader:    source.NewLoader(source.NewClient(cfg.Source.ClientConfig())),
		sink:      db,
		publisher: queue.NopPublisher{},
		metrics:   metrics.NewRunMetrics(),
	}

	if cfg.Kafka.Enabled() {
		if cfg.Kafka.NumPartitions > 0 {
			if err := queue.CreateTopic(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.NumPartitions, 1); err != nil {
				logging.Warn().Err(err).Str("topic", cfg.Kafka.TopicEvents).Msg("Failed to create topic")
			}
		}
		r.publisher = queue.NewKafkaEventPublisher(queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents))
	}
	defer r.publisher.Close()

	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logging.Warn().Err(err).Msg("Redis unavailable, run report will not be stored")
		} else {
			r.reports = cache.NewReportStore(redisClient, cfg.Redis.ReportTTL)
		}
	}

	_, runErr := r.run(ctx, runID)

	if cfg.Metrics.Textfile != "" {
		if err := r.metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logging.Warn().Err(err).Msg("Failed to write metrics")
		}
	}

	if runErr != nil {
		logging.Error().Err(runErr).Str("run_id", runID).Msg("Staging run failed")
		return 1
	}
	return 0
}
