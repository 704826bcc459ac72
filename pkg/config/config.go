package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/sensorlog/pkg/burst"
	"github.com/ccollicutt/sensorlog/pkg/event"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and fills in defaults.
func Validate(cfg *Config) error {
	if cfg.LogSource == "" {
		return errors.New("log_source: a log source is required")
	}

	if cfg.RootElement == "" {
		cfg.RootElement = DefaultRootElement
	}

	if cfg.Filter != nil {
		if cfg.Filter.IsEmpty() {
			cfg.Filter = nil
		} else if cfg.Filter.ID != nil {
			cfg.Filter.ID = event.String(event.PadID(*cfg.Filter.ID))
		}
	}

	if cfg.MinRecBytes < 0 {
		return errors.New("min_recbytes: must not be negative")
	}

	if err := validateBurst(&cfg.Burst); err != nil {
		return fmt.Errorf("burst: %w", err)
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateBurst(b *BurstConfig) error {
	if b.MaxQueueSize < 0 {
		return errors.New("max_queue_size must be positive")
	}
	if b.MaxQueueSize == 0 {
		b.MaxQueueSize = burst.DefaultMaxQueueSize
	}

	if b.Interval < 0 {
		return errors.New("interval must be positive")
	}
	if b.Interval == 0 {
		b.Interval = burst.DefaultInterval
	}

	mode, err := burst.ParseGroupMode(b.GroupBy)
	if err != nil {
		return fmt.Errorf("group_by: %w", err)
	}
	b.GroupBy = string(mode)

	return nil
}

func validateLogging(l *LoggingConfig) error {
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(l.Level)); err != nil {
		return fmt.Errorf("invalid level %q: %w", l.Level, err)
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnBursts
	case WebhookTriggerOnBursts, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_bursts, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands a token given as ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}
