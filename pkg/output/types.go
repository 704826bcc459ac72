// Package output provides formatting and output generation for analysis results.
package output

import (
	"time"

	"github.com/ccollicutt/sensorlog/pkg/analyzer"
	"github.com/ccollicutt/sensorlog/pkg/event"
)

// Report is the complete analysis output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Bursts lists the detected bursts in result order.
	Bursts []Burst `json:"bursts"`

	// Metadata provides context about the analysis.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// EventsParsed is the number of events read from the document.
	EventsParsed int `json:"events_parsed"`

	// EventsDropped is the number of events discarded for a missing id.
	EventsDropped int `json:"events_dropped"`

	// DuplicateIDs is the number of events replaced by a later one with
	// the same id.
	DuplicateIDs int `json:"duplicate_ids"`

	// IncompleteStart is the number of events skipped for a bad timestamp.
	IncompleteStart int `json:"incomplete_start"`

	// Candidates is the number of events checked for bursts.
	Candidates int `json:"candidates"`

	// Bursts is the number of bursts detected.
	Bursts int `json:"bursts"`

	// Groups is the number of burst windows used.
	Groups int `json:"groups"`

	// Partial is true when the document was malformed.
	Partial bool `json:"partial"`
}

// Burst describes one detected burst.
type Burst struct {
	ID       string `json:"id"`
	Start    string `json:"start"`
	ClientIP string `json:"client_ip,omitempty"`
	Group    string `json:"group"`

	// Span is the total time covered by the window's deltas.
	Span time.Duration `json:"span_ns"`

	Event *event.Event `json:"event,omitempty"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	RunID      string `json:"run_id"`
	ConfigFile string `json:"config_file,omitempty"`
	Source     string `json:"source"`
	GroupBy    string `json:"group_by"`

	// ParseError describes why a partial document stopped parsing.
	ParseError string `json:"parse_error,omitempty"`

	// AnalyzedAt is when the analysis was performed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the analysis took.
	Duration time.Duration `json:"duration_ns"`
}

// NewReport creates a Report from analysis results.
func NewReport(result *analyzer.AnalysisResult, configFile string) *Report {
	md := result.Metadata
	report := &Report{
		Bursts: []Burst{},
		Metadata: Metadata{
			RunID:      md.RunID,
			ConfigFile: configFile,
			Source:     md.Source,
			GroupBy:    string(md.GroupBy),
			AnalyzedAt: md.EndTime,
			Duration:   md.EndTime.Sub(md.StartTime),
		},
		Summary: Summary{
			EventsParsed:    md.Counts.Parsed,
			EventsDropped:   md.Counts.Dropped,
			DuplicateIDs:    md.Counts.Duplicates,
			IncompleteStart: md.Counts.IncompleteStart,
			Candidates:      md.Counts.Candidates,
			Partial:         md.Partial,
		},
	}

	if md.ParseError != nil {
		report.Metadata.ParseError = md.ParseError.Error()
	}

	if result.Bursts != nil {
		report.Summary.Groups = result.Bursts.Groups
		for _, t := range result.Bursts.Triggers {
			report.Bursts = append(report.Bursts, newBurst(t.Event, t.Group.String(), t.Span))
		}
	}
	report.Summary.Bursts = len(report.Bursts)

	return report
}

func newBurst(ev *event.Event, group string, span time.Duration) Burst {
	b := Burst{
		ID:    deref(ev.ID),
		Start: deref(ev.Start),
		Group: group,
		Span:  span,
		Event: ev,
	}
	if ev.ClientIP != nil {
		b.ClientIP = *ev.ClientIP
	}
	return b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// HasBursts returns true if any burst was detected.
func (r *Report) HasBursts() bool {
	return r.Summary.Bursts > 0
}
