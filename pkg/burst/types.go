// Package burst finds periods in which events from a group arrive
// anomalously close together.
package burst

import (
	"fmt"
	"time"

	"github.com/ccollicutt/sensorlog/pkg/event"
)

// Defaults match the sensor log analysis the detector was built for:
// five deltas spanning less than ten seconds.
const (
	DefaultMaxQueueSize = 5
	DefaultInterval     = 10 * time.Second
)

// GroupMode selects how events are partitioned into windows.
type GroupMode string

const (
	// GroupAll shares one window across all events.
	GroupAll GroupMode = "all"

	// GroupBySource keeps one window per client address.
	GroupBySource GroupMode = "source"
)

// ParseGroupMode validates a group mode name. An empty name means GroupAll.
func ParseGroupMode(s string) (GroupMode, error) {
	switch GroupMode(s) {
	case "", GroupAll:
		return GroupAll, nil
	case GroupBySource:
		return GroupBySource, nil
	default:
		return "", fmt.Errorf("invalid group mode %q (must be all or source)", s)
	}
}

// GroupKey identifies a window. Events without a client address form their
// own group, distinct from an empty address.
type GroupKey struct {
	ClientIP string
	HasIP    bool
}

// String renders the key for reports.
func (k GroupKey) String() string {
	if !k.HasIP {
		return "<none>"
	}
	return k.ClientIP
}

// keyFor returns the window key of ev under mode.
func keyFor(mode GroupMode, ev *event.Event) GroupKey {
	if mode != GroupBySource {
		return GroupKey{ClientIP: string(GroupAll), HasIP: true}
	}
	if ev.ClientIP == nil {
		return GroupKey{}
	}
	return GroupKey{ClientIP: *ev.ClientIP, HasIP: true}
}

// Trigger is the event at which a burst begins.
type Trigger struct {
	// Event opens the dense run.
	Event *event.Event

	// Group is the window the burst was found in.
	Group GroupKey

	// Span is the total of the window's deltas when the burst was detected.
	Span time.Duration
}

// Result contains the findings of one detection pass.
type Result struct {
	// Triggers lists burst starts grouped by window, windows in the order
	// their first event appeared.
	Triggers []Trigger

	// Groups is the number of windows created.
	Groups int

	// EventsProcessed is the number of events fed to the detector.
	EventsProcessed int
}

// Events returns the trigger events in result order.
func (r *Result) Events() []*event.Event {
	events := make([]*event.Event, len(r.Triggers))
	for i, t := range r.Triggers {
		events[i] = t.Event
	}
	return events
}

// HasBursts returns true if any burst was detected.
func (r *Result) HasBursts() bool {
	return len(r.Triggers) > 0
}
