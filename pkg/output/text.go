package output

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "SensorLog: %d events, %d candidates, %d bursts\n",
		report.Summary.EventsParsed,
		report.Summary.Candidates,
		report.Summary.Bursts)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== SensorLog Burst Report ===")
	fmt.Fprintln(w)

	if report.Summary.Partial {
		fmt.Fprintln(w, "WARNING: document is malformed, results cover the events read before the error")
		if report.Metadata.ParseError != "" {
			fmt.Fprintf(w, "  %s\n", report.Metadata.ParseError)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "[BURSTS] grouped by %s\n", report.Metadata.GroupBy)
	if !report.HasBursts() {
		fmt.Fprintln(w, "  No bursts detected")
	}
	for i := range report.Bursts {
		f.formatBurst(&report.Bursts[i], w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d events parsed, %d candidates, %d bursts in %d groups\n",
		report.Summary.EventsParsed,
		report.Summary.Candidates,
		report.Summary.Bursts,
		report.Summary.Groups)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Skipped: %d without id, %d duplicate ids, %d with incomplete start\n",
			report.Summary.EventsDropped,
			report.Summary.DuplicateIDs,
			report.Summary.IncompleteStart)
		fmt.Fprintf(w, "Source: %s\n", report.Metadata.Source)
		fmt.Fprintf(w, "Run ID: %s\n", report.Metadata.RunID)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatBurst(b *Burst, w io.Writer) {
	client := b.ClientIP
	if client == "" {
		client = "unknown client"
	}
	fmt.Fprintf(w, "  - id=%s from %s at %s (window span %s)\n", b.ID, client, b.Start, b.Span)

	if f.opts.Verbose && b.Event != nil {
		for _, line := range strings.Split(strings.TrimSuffix(b.Event.String(), "\n"), "\n") {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
}
