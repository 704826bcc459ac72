// Package store holds parsed events keyed by id and enumerates them in id
// order.
package store

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/sensorlog/pkg/event"
)

// Store maps padded event ids to events. Enumeration is always in ascending
// id order, which equals numeric order because ids are zero-padded.
type Store struct {
	events map[string]*event.Event
	logger zerolog.Logger

	// sorted caches the ordered keys; nil after an insert.
	sorted []string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for skipped-record warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		events: make(map[string]*event.Event),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert adds ev under its id, replacing any earlier event with the same id.
func (s *Store) Insert(ev *event.Event) {
	key := ev.Key()
	if _, dup := s.events[key]; dup {
		s.logger.Debug().Str("id", key).Msg("duplicate event id, keeping the later record")
	} else {
		s.sorted = nil
	}
	s.events[key] = ev
}

// Len returns the number of stored events, valid or not.
func (s *Store) Len() int {
	return len(s.events)
}

// Get returns the event with the given padded id.
func (s *Store) Get(id string) (*event.Event, bool) {
	ev, ok := s.events[id]
	return ev, ok
}

// IDs returns all ids in ascending order. The returned slice must not be
// modified.
func (s *Store) IDs() []string {
	if s.sorted == nil {
		keys := make([]string, 0, len(s.events))
		for k := range s.events {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s.sorted = keys
	}
	return s.sorted
}

// Partition splits the stored events, in id order, into those with a complete
// start timestamp and those without.
func (s *Store) Partition() (valid, skipped []*event.Event) {
	for _, id := range s.IDs() {
		ev := s.events[id]
		if ev.HasValidStart() {
			valid = append(valid, ev)
		} else {
			skipped = append(skipped, ev)
		}
	}
	return valid, skipped
}

// AllEvents returns every event with a complete start timestamp, in id order.
// Each excluded event is logged as a warning.
func (s *Store) AllEvents() []*event.Event {
	valid, skipped := s.Partition()
	for _, ev := range skipped {
		start := "<absent>"
		if ev.Start != nil {
			start = *ev.Start
		}
		s.logger.Warn().
			Str("id", ev.Key()).
			Str("start", start).
			Msg("skipping event with incomplete start timestamp")
	}
	return valid
}

// Filter returns the events from AllEvents that match every field set on
// pred. An empty or nil predicate returns AllEvents unchanged.
func (s *Store) Filter(pred *event.Event) []*event.Event {
	return Filter(s.AllEvents(), pred)
}

// Filter returns the events matching pred, preserving order.
func Filter(events []*event.Event, pred *event.Event) []*event.Event {
	if pred == nil || pred.IsEmpty() {
		return events
	}
	matched := make([]*event.Event, 0, len(events))
	for _, ev := range events {
		if ev.Matches(pred) {
			matched = append(matched, ev)
		}
	}
	return matched
}
