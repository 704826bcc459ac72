// Package cli provides the command-line interface for SensorLog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sensorlog/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	commands.ExitCode = 0
	if err := NewRootCommand().Execute(); err != nil {
		// SilenceErrors keeps cobra from printing this itself.
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "sensorlog",
		Short: "Detect bursts of activity in sensor event logs",
		Long: `SensorLog reads the XML event log written by a network security sensor,
filters the events by exact field values, and reports bursts: runs of events
that arrive faster than a configured rate.

Bursts can be tracked across the whole log or separately per client address.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&global.LogLevel, "log-level", "",
		"Diagnostic log level (debug|info|warn|error), overrides the config file")
	rootCmd.PersistentFlags().BoolVar(&global.LogPretty, "log-pretty", false,
		"Human-readable diagnostic logs instead of JSON")

	rootCmd.AddCommand(commands.NewAnalyzeCommand(global))
	rootCmd.AddCommand(commands.NewEventsCommand(global))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
