package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/sensorlog/pkg/burst"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
log_source: /var/log/kfsensor/test1.log
filter:
  name: ICMP Echo Request
  id: 42
min_recbytes: 1498
burst:
  max_queue_size: 6
  interval: 30s
  group_by: source
  parallel: true
logging:
  level: debug
  pretty: true
metrics:
  textfile: /var/lib/node_exporter/sensorlog.prom
webhooks:
  - name: soc
    url: https://soc.example.com/hook
    compress: true
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogSource != "/var/log/kfsensor/test1.log" {
		t.Errorf("LogSource = %q", cfg.LogSource)
	}
	if cfg.RootElement != DefaultRootElement {
		t.Errorf("RootElement = %q, want default", cfg.RootElement)
	}
	if cfg.Filter == nil || cfg.Filter.Name == nil || *cfg.Filter.Name != "ICMP Echo Request" {
		t.Fatalf("Filter = %+v", cfg.Filter)
	}
	if cfg.Filter.ID == nil || *cfg.Filter.ID != "0000000042" {
		t.Errorf("Filter.ID = %v, want padded id", cfg.Filter.ID)
	}
	if cfg.Filter.ClientIP != nil {
		t.Error("Filter.ClientIP should be absent")
	}
	if cfg.MinRecBytes != 1498 {
		t.Errorf("MinRecBytes = %d", cfg.MinRecBytes)
	}
	if cfg.Burst.MaxQueueSize != 6 || cfg.Burst.Interval != 30*time.Second {
		t.Errorf("Burst = %+v", cfg.Burst)
	}
	if cfg.Burst.GroupMode() != burst.GroupBySource || !cfg.Burst.Parallel {
		t.Errorf("Burst = %+v", cfg.Burst)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Pretty {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Textfile == "" {
		t.Error("Metrics.Textfile is empty")
	}
	if len(cfg.Webhooks) != 1 {
		t.Fatalf("Webhooks = %d, want 1", len(cfg.Webhooks))
	}
	wh := cfg.Webhooks[0]
	if wh.Trigger != WebhookTriggerOnBursts || wh.Timeout != DefaultWebhookTimeout || !wh.Compress {
		t.Errorf("Webhook defaults not applied: %+v", wh)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "log_source: test1.log\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Burst.MaxQueueSize != burst.DefaultMaxQueueSize {
		t.Errorf("MaxQueueSize = %d, want %d", cfg.Burst.MaxQueueSize, burst.DefaultMaxQueueSize)
	}
	if cfg.Burst.Interval != burst.DefaultInterval {
		t.Errorf("Interval = %v, want %v", cfg.Burst.Interval, burst.DefaultInterval)
	}
	if cfg.Burst.GroupMode() != burst.GroupAll {
		t.Errorf("GroupBy = %q, want all", cfg.Burst.GroupBy)
	}
	if cfg.Filter != nil {
		t.Errorf("Filter = %+v, want nil", cfg.Filter)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_EmptyFilterIsNil(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "log_source: test1.log\nfilter: {}\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Filter != nil {
		t.Errorf("Filter = %+v, want nil", cfg.Filter)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SENSORLOG_LOG_SOURCE", "s3://sensor-logs/test1.log")
	t.Setenv("SENSORLOG_GROUP_BY", "source")
	t.Setenv("SENSORLOG_LOG_LEVEL", "warn")
	t.Setenv("SENSORLOG_METRICS_TEXTFILE", "/tmp/sensorlog.prom")

	path := writeTempFile(t, "config.yaml", "log_source: test1.log\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogSource != "s3://sensor-logs/test1.log" {
		t.Errorf("LogSource = %q", cfg.LogSource)
	}
	if cfg.Burst.GroupMode() != burst.GroupBySource {
		t.Errorf("GroupBy = %q", cfg.Burst.GroupBy)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Metrics.Textfile != "/tmp/sensorlog.prom" {
		t.Errorf("Metrics.Textfile = %q", cfg.Metrics.Textfile)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "invalid.yaml", `invalid: yaml: content: [`)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{
			name:    "no log source",
			cfg:     &Config{},
			wantErr: "log_source",
		},
		{
			name:    "bad group_by",
			cfg:     &Config{LogSource: "a.log", Burst: BurstConfig{GroupBy: "host"}},
			wantErr: "group_by",
		},
		{
			name:    "negative queue size",
			cfg:     &Config{LogSource: "a.log", Burst: BurstConfig{MaxQueueSize: -1}},
			wantErr: "max_queue_size",
		},
		{
			name:    "negative interval",
			cfg:     &Config{LogSource: "a.log", Burst: BurstConfig{Interval: -time.Second}},
			wantErr: "interval",
		},
		{
			name:    "negative min_recbytes",
			cfg:     &Config{LogSource: "a.log", MinRecBytes: -5},
			wantErr: "min_recbytes",
		},
		{
			name:    "bad log level",
			cfg:     &Config{LogSource: "a.log", Logging: LoggingConfig{Level: "loud"}},
			wantErr: "logging",
		},
		{
			name:    "webhook without url",
			cfg:     &Config{LogSource: "a.log", Webhooks: []WebhookConfig{{Name: "x"}}},
			wantErr: "url is required",
		},
		{
			name:    "webhook bad scheme",
			cfg:     &Config{LogSource: "a.log", Webhooks: []WebhookConfig{{URL: "ftp://example.com"}}},
			wantErr: "scheme",
		},
		{
			name:    "webhook no host",
			cfg:     &Config{LogSource: "a.log", Webhooks: []WebhookConfig{{URL: "https://"}}},
			wantErr: "host",
		},
		{
			name:    "webhook bad trigger",
			cfg:     &Config{LogSource: "a.log", Webhooks: []WebhookConfig{{URL: "https://example.com", Trigger: "sometimes"}}},
			wantErr: "trigger",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_WebhookTokenExpansion(t *testing.T) {
	t.Setenv("SOC_TOKEN", "s3cret")

	for _, token := range []string{"${SOC_TOKEN}", "$SOC_TOKEN"} {
		cfg := &Config{
			LogSource: "a.log",
			Webhooks:  []WebhookConfig{{URL: "https://example.com/hook", Token: token}},
		}
		if err := Validate(cfg); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if cfg.Webhooks[0].Token != "s3cret" {
			t.Errorf("Token %q expanded to %q", token, cfg.Webhooks[0].Token)
		}
	}
}
