// Package config provides configuration loading and validation for SensorLog.
package config

import (
	"time"

	"github.com/ccollicutt/sensorlog/pkg/burst"
	"github.com/ccollicutt/sensorlog/pkg/event"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// LogSource is the document to analyze: a path, "-" for stdin, or
	// s3://bucket/key. .gz and .zst files are decompressed.
	LogSource string `yaml:"log_source"`

	// RootElement is the name of the document's root element.
	RootElement string `yaml:"root_element,omitempty"`

	// Filter keeps only events whose fields equal every value given here.
	Filter *event.Event `yaml:"filter,omitempty"`

	// MinRecBytes keeps only events whose recbytes is at least this value.
	// Zero disables the check.
	MinRecBytes int64 `yaml:"min_recbytes,omitempty"`

	Burst    BurstConfig     `yaml:"burst"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
	Logging  LoggingConfig   `yaml:"logging"`
	Metrics  MetricsConfig   `yaml:"metrics,omitempty"`
}

// BurstConfig tunes the burst detector.
type BurstConfig struct {
	// MaxQueueSize is the number of inter-arrival deltas per window.
	MaxQueueSize int `yaml:"max_queue_size,omitempty"`

	// Interval is the span a full window must stay under to be a burst.
	Interval time.Duration `yaml:"interval,omitempty"`

	// GroupBy is "all" for one window or "source" for one per client address.
	GroupBy string `yaml:"group_by,omitempty"`

	// Parallel runs per-source windows concurrently.
	Parallel bool `yaml:"parallel,omitempty"`
}

// GroupMode returns GroupBy as a burst.GroupMode.
func (b *BurstConfig) GroupMode() burst.GroupMode {
	return burst.GroupMode(b.GroupBy)
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	// Level is a zerolog level name (debug, info, warn, error).
	Level string `yaml:"level,omitempty"`

	// Pretty writes human-readable console logs instead of JSON.
	Pretty bool `yaml:"pretty,omitempty"`
}

// MetricsConfig controls the metrics textfile written after a run.
type MetricsConfig struct {
	// Textfile is a path for a Prometheus textfile-collector file.
	Textfile string `yaml:"textfile,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnBursts fires only when bursts are detected (default).
	WebhookTriggerOnBursts WebhookTrigger = "on_bursts"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending analysis results.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_bursts" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Compress sends the payload gzip-encoded.
	Compress bool `yaml:"compress,omitempty"`
}
