package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/sensorlog/pkg/analyzer"
	"github.com/ccollicutt/sensorlog/pkg/burst"
	"github.com/ccollicutt/sensorlog/pkg/config"
	"github.com/ccollicutt/sensorlog/pkg/metrics"
	"github.com/ccollicutt/sensorlog/pkg/output"
	"github.com/ccollicutt/sensorlog/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	Output          string
	GroupBy         string
	Verbose         bool
	Quiet           bool
	MetricsTextfile string

	// Webhook options
	WebhookURL      string
	WebhookToken    string
	WebhookTrigger  string
	WebhookCompress bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(global *GlobalOptions) *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <config-file>",
		Short: "Analyze a sensor log for bursts",
		Long: `Parse the sensor log named in the configuration file, keep the events that
match its filter, and report bursts: points where a full window of events
arrived in less than the configured interval.

Exit codes:
  0 - No bursts detected
  1 - Bursts detected
  2 - Configuration or runtime error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, global, opts)
		},
	}

	// Flags
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.GroupBy, "group-by", "", "Burst grouping (all|source), overrides the config file")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show the full record of each burst")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "Write run metrics to this Prometheus textfile")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_bursts", "When to fire webhook (on_bursts|always|never)")
	cmd.Flags().BoolVar(&opts.WebhookCompress, "webhook-compress", false, "Send the webhook body gzip-encoded")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, global *GlobalOptions, opts *AnalyzeOptions) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := newLogger(global, &cfg.Logging)

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()

	a, err := analyzer.NewAnalyzer(cfg,
		analyzer.WithLogger(log),
		analyzer.WithMetrics(collector),
		analyzer.WithGroupMode(burst.GroupMode(opts.GroupBy)),
	)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	result, err := a.AnalyzeSource(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.NewReport(result, configPath)

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook and metrics failures are logged but don't fail the analysis.
	sendWebhooks(ctx, log, cfg, opts, report)
	writeMetrics(log, collector, cfg, opts)

	if report.HasBursts() {
		ExitCode = 1
	}

	return nil
}

func createFormatter(opts *AnalyzeOptions) (output.Formatter, error) {
	formatOpts := output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	}

	switch opts.Output {
	case "text":
		return output.NewTextFormatter(formatOpts), nil
	case "json":
		return output.NewJSONFormatter(formatOpts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

// writeMetrics writes the textfile named by the flag, or else the config.
func writeMetrics(log zerolog.Logger, c *metrics.Collector, cfg *config.Config, opts *AnalyzeOptions) {
	path := opts.MetricsTextfile
	if path == "" {
		path = cfg.Metrics.Textfile
	}
	if path == "" {
		return
	}

	if err := c.WriteTextfile(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("metrics textfile not written")
		return
	}
	log.Debug().Str("path", path).Msg("metrics textfile written")
}

// sendWebhooks sends the report to all configured webhooks.
func sendWebhooks(ctx context.Context, log zerolog.Logger, cfg *config.Config, opts *AnalyzeOptions, report *output.Report) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()

	for _, wh := range webhooks {
		if !shouldFireWebhook(wh.Trigger, report.HasBursts()) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:      wh.URL,
			Token:    wh.Token,
			Timeout:  wh.Timeout,
			Compress: wh.Compress,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			log.Info().Str("webhook", name).Int("status", resp.StatusCode).
				Dur("duration", resp.Duration).Msg("webhook sent")
		} else {
			log.Error().Str("webhook", name).Err(resp.Error).Msg("webhook failed")
		}
	}
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnBursts
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:     "cli",
			URL:      opts.WebhookURL,
			Token:    opts.WebhookToken,
			Trigger:  trigger,
			Timeout:  config.DefaultWebhookTimeout,
			Compress: opts.WebhookCompress,
		})
	}

	return webhooks
}

// shouldFireWebhook determines if a webhook should fire based on trigger and bursts.
func shouldFireWebhook(trigger config.WebhookTrigger, hasBursts bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return hasBursts
	}
}
