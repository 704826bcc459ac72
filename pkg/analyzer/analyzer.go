package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ccollicutt/sensorlog/pkg/burst"
	"github.com/ccollicutt/sensorlog/pkg/config"
	"github.com/ccollicutt/sensorlog/pkg/event"
	"github.com/ccollicutt/sensorlog/pkg/metrics"
	"github.com/ccollicutt/sensorlog/pkg/parser"
	"github.com/ccollicutt/sensorlog/pkg/source"
	"github.com/ccollicutt/sensorlog/pkg/store"
)

// Analyzer orchestrates parsing, filtering and burst detection.
type Analyzer struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Collector
	opener  *source.Opener

	// Options
	groupMode burst.GroupMode
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithLogger sets the logger passed to every stage.
func WithLogger(l zerolog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithMetrics records run counters on c.
func WithMetrics(c *metrics.Collector) AnalyzerOption {
	return func(a *Analyzer) {
		a.metrics = c
	}
}

// WithGroupMode overrides the configured burst grouping mode.
func WithGroupMode(mode burst.GroupMode) AnalyzerOption {
	return func(a *Analyzer) {
		if mode != "" {
			a.groupMode = mode
		}
	}
}

// WithOpener sets how the configured log source is opened.
func WithOpener(o *source.Opener) AnalyzerOption {
	return func(a *Analyzer) {
		a.opener = o
	}
}

// NewAnalyzer creates a new analyzer from configuration.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	a := &Analyzer{
		cfg:       cfg,
		logger:    zerolog.Nop(),
		groupMode: cfg.Burst.GroupMode(),
	}

	for _, opt := range opts {
		opt(a)
	}

	mode, err := burst.ParseGroupMode(string(a.groupMode))
	if err != nil {
		return nil, err
	}
	a.groupMode = mode

	if a.opener == nil {
		a.opener = source.NewOpener()
	}

	return a, nil
}

// AnalyzeSource opens the configured log source and analyzes it.
func (a *Analyzer) AnalyzeSource(ctx context.Context) (*AnalysisResult, error) {
	rc, err := a.opener.Open(ctx, a.cfg.LogSource)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return a.Analyze(ctx, rc)
}

// Analyze parses the document from r and runs burst detection over the
// events that pass the filter. A malformed document is not an error: the
// events parsed before the problem are analyzed and the result is marked
// partial.
func (a *Analyzer) Analyze(ctx context.Context, r io.Reader) (*AnalysisResult, error) {
	result := &AnalysisResult{
		Metadata: AnalysisMetadata{
			RunID:     uuid.NewString(),
			Source:    a.cfg.LogSource,
			GroupBy:   a.groupMode,
			StartTime: time.Now(),
		},
	}

	log := a.logger.With().Str("run_id", result.Metadata.RunID).Logger()

	p := parser.New(
		parser.WithRootElement(a.cfg.RootElement),
		parser.WithLogger(log),
	)

	parsed, err := p.Parse(ctx, r)
	if err != nil {
		if !errors.Is(err, parser.ErrMalformedDocument) {
			return nil, fmt.Errorf("parsing %s: %w", a.cfg.LogSource, err)
		}
		result.Metadata.Partial = true
		result.Metadata.ParseError = err
	}

	counts := &result.Metadata.Counts
	counts.Parsed = parsed.Records
	counts.Dropped = parsed.Dropped
	counts.Duplicates = parsed.Records - parsed.Store.Len()

	valid := parsed.Store.AllEvents()
	counts.IncompleteStart = parsed.Store.Len() - len(valid)

	matched := store.Filter(valid, a.cfg.Filter)
	counts.Matched = len(matched)

	candidates, below := filterRecBytes(matched, a.cfg.MinRecBytes)
	counts.BelowRecBytes = below
	counts.Candidates = len(candidates)
	result.Candidates = candidates

	d := burst.NewDetector(
		burst.WithMaxQueueSize(a.cfg.Burst.MaxQueueSize),
		burst.WithInterval(a.cfg.Burst.Interval),
		burst.WithGroupMode(a.groupMode),
		burst.WithParallel(a.cfg.Burst.Parallel),
		burst.WithLogger(log),
	)

	bursts, err := d.Detect(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("detecting bursts: %w", err)
	}
	result.Bursts = bursts

	result.Metadata.EndTime = time.Now()

	log.Info().
		Int("events", counts.Parsed).
		Int("candidates", counts.Candidates).
		Int("bursts", len(bursts.Triggers)).
		Bool("partial", result.Metadata.Partial).
		Msg("analysis complete")

	a.record(parsed, result)

	return result, nil
}

// record updates the metrics collector, if any.
func (a *Analyzer) record(parsed *parser.Result, result *AnalysisResult) {
	if a.metrics == nil {
		return
	}
	counts := result.Metadata.Counts
	a.metrics.ObserveParse(parsed.Records, parsed.Dropped, parsed.Complete)
	a.metrics.IncSkipped(metrics.ReasonDuplicateID, counts.Duplicates)
	a.metrics.IncSkipped(metrics.ReasonIncompleteStart, counts.IncompleteStart)
	a.metrics.IncSkipped(metrics.ReasonFiltered, counts.Parsed-counts.Duplicates-counts.IncompleteStart-counts.Matched)
	a.metrics.IncSkipped(metrics.ReasonBelowRecBytes, counts.BelowRecBytes)
	a.metrics.ObserveBursts(a.groupMode, result.Bursts)
}

// filterRecBytes keeps events whose recbytes is an integer of at least
// threshold. A zero threshold keeps everything.
func filterRecBytes(events []*event.Event, threshold int64) (kept []*event.Event, below int) {
	if threshold <= 0 {
		return events, 0
	}

	kept = make([]*event.Event, 0, len(events))
	for _, ev := range events {
		if ev.RecBytes != nil {
			n, err := strconv.ParseInt(strings.TrimSpace(*ev.RecBytes), 10, 64)
			if err == nil && n >= threshold {
				kept = append(kept, ev)
				continue
			}
		}
		below++
	}
	return kept, below
}
