package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/ccollicutt/sensorlog/pkg/burst"
)

// Default values for configuration.
const (
	DefaultRootElement    = "log"
	DefaultGroupBy        = string(burst.GroupAll)
	DefaultLogLevel       = "info"
	DefaultWebhookTimeout = 10 * time.Second
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RootElement: DefaultRootElement,
		Burst: BurstConfig{
			MaxQueueSize: burst.DefaultMaxQueueSize,
			Interval:     burst.DefaultInterval,
			GroupBy:      DefaultGroupBy,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// envOverrides lists the settings that can come from the environment.
// Unset variables leave the file's values alone.
type envOverrides struct {
	LogSource       string `env:"SENSORLOG_LOG_SOURCE"`
	GroupBy         string `env:"SENSORLOG_GROUP_BY"`
	LogLevel        string `env:"SENSORLOG_LOG_LEVEL"`
	MetricsTextfile string `env:"SENSORLOG_METRICS_TEXTFILE"`
}

// applyEnvironmentOverrides applies environment variable overrides to the
// config. A .env file in the working directory is read first if present.
func (c *Config) applyEnvironmentOverrides() error {
	_ = godotenv.Load()

	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	if o.LogSource != "" {
		c.LogSource = o.LogSource
	}
	if o.GroupBy != "" {
		c.Burst.GroupBy = o.GroupBy
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.MetricsTextfile != "" {
		c.Metrics.Textfile = o.MetricsTextfile
	}
	return nil
}
