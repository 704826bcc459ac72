// Package analyzer runs the full sensor log analysis: parse, filter, and
// burst detection.
package analyzer

import (
	"time"

	"github.com/ccollicutt/sensorlog/pkg/burst"
	"github.com/ccollicutt/sensorlog/pkg/event"
)

// AnalysisResult contains the complete analysis output.
type AnalysisResult struct {
	// Bursts contains the detector's findings.
	Bursts *burst.Result

	// Candidates are the events that were fed to the burst detector, in id
	// order.
	Candidates []*event.Event

	// Metadata provides context about the analysis.
	Metadata AnalysisMetadata
}

// AnalysisMetadata provides context about the analysis run.
type AnalysisMetadata struct {
	// RunID uniquely identifies this run.
	RunID string

	// Source is the document that was analyzed.
	Source string

	// GroupBy is the burst grouping mode used.
	GroupBy burst.GroupMode

	// StartTime is when analysis began.
	StartTime time.Time

	// EndTime is when analysis completed.
	EndTime time.Time

	// Partial is true when the document was malformed and only the events
	// before the error were analyzed.
	Partial bool

	// ParseError is the document error for a partial run.
	ParseError error

	Counts Counts
}

// Counts tracks how many events survived each stage.
type Counts struct {
	// Parsed is the number of events completed by the parser, including
	// ones later replaced by a duplicate id.
	Parsed int

	// Dropped is the number of events the parser discarded (no id).
	Dropped int

	// Duplicates is the number of parsed events replaced by a later event
	// with the same id.
	Duplicates int

	// IncompleteStart is the number of events excluded for a start
	// timestamp that is not exactly 23 characters.
	IncompleteStart int

	// Matched is the number of valid events matching the filter.
	Matched int

	// BelowRecBytes is the number of matched events under min_recbytes.
	BelowRecBytes int

	// Candidates is the number of events fed to the burst detector.
	Candidates int
}

// HasBursts returns true if any burst was detected.
func (r *AnalysisResult) HasBursts() bool {
	return r.Bursts != nil && r.Bursts.HasBursts()
}
