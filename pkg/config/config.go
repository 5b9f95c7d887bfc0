package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/smukkama/pedestrian-stats/internal/database"
	"github.com/smukkama/pedestrian-stats/internal/logging"
	"github.com/smukkama/pedestrian-stats/internal/pedestrian"
	"github.com/smukkama/pedestrian-stats/internal/source"
	"github.com/smukkama/pedestrian-stats/internal/stats"
)

// Default analysis windows. Lockdown ends are exclusive, so each is the day
// after the last day of the lockdown.
const (
	DefaultPrecovidWindow     = "..20200331"
	DefaultLockdownWindow     = "20200331..20200513,20200709..20201028,20210213..20210218,20210528..20211007,20210716..20210728,20210805..20211022"
	DefaultPostLockdownWindow = "20211022.."
)

// Staging modes
const (
	ModeReplace = "replace"
	ModeAppend  = "append"
)

type Config struct {
	Source  SourceConfig
	Stats   stats.Config
	Staging StagingConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Metrics MetricsConfig
	Log     logging.Config
}

type SourceConfig struct {
	Sensors   source.Source
	Counts    source.Source
	PageSize  int
	Timeout   time.Duration
	RateLimit float64
}

func (s SourceConfig) ClientConfig() source.ClientConfig {
	return source.ClientConfig{
		PageSize:  s.PageSize,
		Timeout:   s.Timeout,
		RateLimit: s.RateLimit,
	}
}

type StagingConfig struct {
	Driver string
	DSN    string
	Mode   string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	ReportTTL time.Duration
}

// Enabled reports whether run reports are kept in Redis
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type KafkaConfig struct {
	Brokers       []string
	TopicEvents   string
	NumPartitions int
}

// Enabled reports whether staging events are published
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type MetricsConfig struct {
	Textfile string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Source: SourceConfig{
			Sensors: source.Source{
				URL:  getEnv("SOURCE_SENSOR_URL", "https://data.melbourne.vic.gov.au/resource/h57g-5234.csv"),
				File: getEnv("SOURCE_SENSOR_FILE", ""),
			},
			Counts: source.Source{
				URL:  getEnv("SOURCE_COUNTS_URL", "https://data.melbourne.vic.gov.au/resource/b2ak-trbp.csv"),
				File: getEnv("SOURCE_COUNTS_FILE", ""),
			},
			PageSize:  getEnvAsInt("SOURCE_PAGE_SIZE", source.DefaultPageSize),
			Timeout:   getEnvAsDuration("SOURCE_TIMEOUT", 2*time.Minute),
			RateLimit: getEnvAsFloat("SOURCE_RATE_LIMIT", 0),
		},
		Staging: StagingConfig{
			Driver: getEnv("STAGING_DRIVER", database.DriverSQLite),
			DSN:    getEnv("STAGING_DSN", "./staged_pedestrian.db"),
			Mode:   strings.ToLower(getEnv("STAGING_MODE", ModeReplace)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			ReportTTL: getEnvAsDuration("REDIS_REPORT_TTL", 30*24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvAsList("KAFKA_BROKERS"),
			TopicEvents:   getEnv("KAFKA_TOPIC_EVENTS", "pedestrian.staging.events"),
			NumPartitions: getEnvAsInt("KAFKA_NUM_PARTITIONS", 0),
		},
		Metrics: MetricsConfig{
			Textfile: getEnv("METRICS_TEXTFILE", ""),
		},
		Log: logging.Config{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	st, err := loadStats()
	if err != nil {
		return nil, err
	}
	config.Stats = st

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadStats() (stats.Config, error) {
	var cfg stats.Config
	var err error

	if cfg.Precovid, err = pedestrian.ParseWindow("precovid", getEnv("WINDOW_PRECOVID", DefaultPrecovidWindow)); err != nil {
		return cfg, fmt.Errorf("WINDOW_PRECOVID: %w", err)
	}
	if cfg.Lockdown, err = pedestrian.ParseWindow("lockdown", getEnv("WINDOW_LOCKDOWN", DefaultLockdownWindow)); err != nil {
		return cfg, fmt.Errorf("WINDOW_LOCKDOWN: %w", err)
	}
	if cfg.PostLockdown, err = pedestrian.ParseWindow("post_lockdown", getEnv("WINDOW_POST_LOCKDOWN", DefaultPostLockdownWindow)); err != nil {
		return cfg, fmt.Errorf("WINDOW_POST_LOCKDOWN: %w", err)
	}

	cfg.TopN = getEnvAsInt("TOP_N", 10)

	for _, s := range strings.Split(getEnv("TOP_N_GRANULARITIES", "day,month"), ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		g, err := stats.ParseGranularity(s)
		if err != nil {
			return cfg, fmt.Errorf("TOP_N_GRANULARITIES: %w", err)
		}
		cfg.Granularities = append(cfg.Granularities, g)
	}

	if cfg.ComparisonOutput, err = stats.ParseComparisonOutput(getEnv("COMPARISON_OUTPUT", string(stats.Extremal))); err != nil {
		return cfg, fmt.Errorf("COMPARISON_OUTPUT: %w", err)
	}
	return cfg, nil
}

// Validate checks the options that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Staging.Driver {
	case database.DriverSQLite, database.DriverPostgres:
	default:
		return fmt.Errorf("STAGING_DRIVER: unsupported driver %q", c.Staging.Driver)
	}
	switch c.Staging.Mode {
	case ModeReplace, ModeAppend:
	default:
		return fmt.Errorf("STAGING_MODE: invalid mode %q (expected replace or append)", c.Staging.Mode)
	}
	if c.Source.Sensors.URL == "" && c.Source.Sensors.File == "" {
		return fmt.Errorf("no sensor location source configured")
	}
	if c.Source.Counts.URL == "" && c.Source.Counts.File == "" {
		return fmt.Errorf("no hourly counts source configured")
	}
	return c.Stats.Validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var list []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
