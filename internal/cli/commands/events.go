package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/sensorlog/pkg/config"
	"github.com/ccollicutt/sensorlog/pkg/event"
	"github.com/ccollicutt/sensorlog/pkg/output"
	"github.com/ccollicutt/sensorlog/pkg/parser"
)

// EventsOptions holds command-line options for the events command.
type EventsOptions struct {
	Filters        []string
	Output         string
	RootElement    string
	IncludeInvalid bool
}

// NewEventsCommand creates the events command.
func NewEventsCommand(global *GlobalOptions) *cobra.Command {
	opts := &EventsOptions{}

	cmd := &cobra.Command{
		Use:   "events <log-file>",
		Short: "List the events in a sensor log",
		Long: `Parse a sensor log and print its events in id order.

Events without a complete start timestamp are left out unless
--include-invalid is given. Each --filter field=value keeps only events whose
field equals value exactly; ids are zero-padded before comparing. The value
is everything after the first "=", commas included.

The log file may be a path, "-" for stdin, or s3://bucket/key, optionally
gzip (.gz) or zstd (.zst) compressed.

Exit codes:
  0 - Document read completely
  1 - Document malformed; only the events before the error are listed
  2 - Error occurred`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(cmd, args, global, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Filters, "filter", "f", nil, "Keep events with field=value (can be repeated)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.RootElement, "root", config.DefaultRootElement, "Name of the document's root element")
	cmd.Flags().BoolVar(&opts.IncludeInvalid, "include-invalid", false, "Also list events with an incomplete start timestamp")

	return cmd
}

func runEvents(cmd *cobra.Command, args []string, global *GlobalOptions, opts *EventsOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	filters, err := parseFilters(opts.Filters)
	if err != nil {
		return err
	}
	pred, err := event.PredicateFromMap(filters)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	log := newLogger(global, nil)
	p := parser.New(
		parser.WithRootElement(opts.RootElement),
		parser.WithLogger(log),
	)

	result, parseErr := p.ParseFile(ctx, args[0])
	if parseErr != nil && !errors.Is(parseErr, parser.ErrMalformedDocument) {
		return fmt.Errorf("parsing %s: %w", args[0], parseErr)
	}

	var events []*event.Event
	if opts.IncludeInvalid {
		for _, id := range result.Store.IDs() {
			ev, _ := result.Store.Get(id)
			if ev.Matches(pred) {
				events = append(events, ev)
			}
		}
	} else {
		events = result.Store.Filter(pred)
	}

	if err := output.WriteEvents(cmd.OutOrStdout(), events, opts.Output); err != nil {
		return err
	}

	if parseErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: listing is incomplete: %v\n", parseErr)
		ExitCode = 1
	}

	return nil
}

// parseFilters splits each field=value flag on its first "=".
func parseFilters(values []string) (map[string]string, error) {
	filters := make(map[string]string, len(values))
	for _, v := range values {
		field, value, ok := strings.Cut(v, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q: expected field=value", v)
		}
		filters[strings.TrimSpace(field)] = value
	}
	return filters, nil
}
