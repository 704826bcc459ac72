package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sensorlog/pkg/config"
	"github.com/ccollicutt/sensorlog/pkg/source"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a SensorLog configuration file without running analysis.

Checks:
  - YAML syntax
  - Required fields
  - Burst window settings and grouping mode
  - Webhook URLs and triggers
  - Log source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Log source:   %s\n", cfg.LogSource)
	fmt.Fprintf(w, "  Root element: %s\n", cfg.RootElement)
	fmt.Fprintf(w, "  Burst window: %d events under %s, grouped by %s\n",
		cfg.Burst.MaxQueueSize, cfg.Burst.Interval, cfg.Burst.GroupBy)
	if cfg.MinRecBytes > 0 {
		fmt.Fprintf(w, "  Min recbytes: %d\n", cfg.MinRecBytes)
	}
	fmt.Fprintf(w, "  Webhooks:     %d\n", len(cfg.Webhooks))

	printFilter(w, cfg)
	checkLogSource(w, cfg.LogSource)

	return nil
}

func printFilter(w io.Writer, cfg *config.Config) {
	if cfg.Filter == nil {
		fmt.Fprintf(w, "\nFilter: none (all events)\n")
		return
	}
	fmt.Fprintf(w, "\nFilter:\n")
	for _, line := range strings.Split(strings.TrimSuffix(cfg.Filter.String(), "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// checkLogSource warns when a local log source is missing. Stdin and S3
// sources are not checked.
func checkLogSource(w io.Writer, location string) {
	if location == source.Stdin || strings.HasPrefix(location, "s3://") {
		return
	}
	if _, err := os.Stat(location); err != nil {
		fmt.Fprintf(w, "\nWarning: log source not readable: %v\n", err)
	}
}
