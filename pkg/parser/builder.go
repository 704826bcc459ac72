package parser

import (
	"github.com/rs/zerolog"

	"github.com/ccollicutt/sensorlog/pkg/event"
	"github.com/ccollicutt/sensorlog/pkg/store"
)

// Element and attribute names of the sensor log format.
const (
	DefaultRootElement = "log"

	elemEvent      = "event"
	elemClient     = "client"
	elemHost       = "host"
	elemConnection = "connection"
	elemStart      = "start"
	elemRecBytes   = "recBytes"
	elemReceived   = "received"
)

// target is the event field that character data is currently routed to.
type target int

const (
	targetNone target = iota
	targetStart
	targetRecBytes
	targetReceived
)

// leafTargets maps the text-bearing leaf elements to their field.
var leafTargets = map[string]target{
	elemStart:    targetStart,
	elemRecBytes: targetRecBytes,
	elemReceived: targetReceived,
}

// Builder assembles events from element and character-data signals. It holds
// at most one in-progress event; completed events are inserted into the
// store when their closing element is seen.
type Builder struct {
	root   string
	store  *store.Store
	logger zerolog.Logger

	current *event.Event
	broken  bool // current event lacks an id and will be dropped
	target  target
	leaf    string

	records int
	dropped int
}

// NewBuilder creates a builder that inserts completed events into s.
func NewBuilder(s *store.Store, root string, logger zerolog.Logger) *Builder {
	if root == "" {
		root = DefaultRootElement
	}
	return &Builder{
		root:   root,
		store:  s,
		logger: logger,
	}
}

// Records returns the number of events inserted so far.
func (b *Builder) Records() int {
	return b.records
}

// Dropped returns the number of events discarded because they had no id.
func (b *Builder) Dropped() int {
	return b.dropped
}

// InRecord returns true while an event element is open.
func (b *Builder) InRecord() bool {
	return b.current != nil
}

// StartElement handles an opening element with its attributes.
func (b *Builder) StartElement(name string, attrs map[string]string) {
	b.target = targetNone
	b.leaf = ""

	switch name {
	case b.root:
		b.logger.Info().Msg("started parsing")
	case elemEvent:
		b.beginEvent(attrs)
	case elemClient:
		if b.requireRecord(name) {
			b.current.Domain = attr(attrs, "domain")
			b.current.ClientIP = attr(attrs, "ip")
			b.current.ClientPort = attr(attrs, "port")
		}
	case elemHost:
		if b.requireRecord(name) {
			b.current.HostIP = attr(attrs, "ip")
			b.current.BindIP = attr(attrs, "bindip")
			b.current.HostPort = attr(attrs, "port")
		}
	case elemConnection:
		if b.requireRecord(name) {
			b.current.ClosedBy = attr(attrs, "closedby")
		}
	default:
		b.leaf = name
		b.target = leafTargets[name]
	}
}

func (b *Builder) beginEvent(attrs map[string]string) {
	if b.current != nil {
		b.logger.Warn().Str("id", b.current.Key()).Msg("event opened before previous event closed, discarding previous")
		b.dropped++
	}

	ev := &event.Event{
		Type:     attr(attrs, "type"),
		Desc:     attr(attrs, "desc"),
		Action:   attr(attrs, "action"),
		Name:     attr(attrs, "name"),
		Protocol: attr(attrs, "protocol"),
		Severity: attr(attrs, "severity"),
	}

	b.broken = false
	if id, ok := attrs["id"]; ok {
		ev.ID = event.String(event.PadID(id))
	} else {
		b.broken = true
	}

	b.current = ev
}

// requireRecord reports whether an event is open for a sub-element.
func (b *Builder) requireRecord(name string) bool {
	if b.current == nil {
		b.logger.Debug().Str("element", name).Msg("ignoring element outside of an event")
		return false
	}
	return true
}

// CharData handles a chunk of text. Text for one element may arrive in
// several chunks; they are concatenated in order.
func (b *Builder) CharData(data []byte) {
	if b.current == nil || b.target == targetNone || len(data) == 0 {
		return
	}

	switch b.target {
	case targetStart:
		start := event.TruncateStart(appendField(b.current.Start, data))
		b.current.Start = &start
	case targetRecBytes:
		v := appendField(b.current.RecBytes, data)
		b.current.RecBytes = &v
	case targetReceived:
		v := appendField(b.current.Received, data)
		b.current.Received = &v
	}
}

// EndElement handles a closing element.
func (b *Builder) EndElement(name string) {
	switch name {
	case b.root:
		b.logger.Info().Int("records", b.records).Msg("finished parsing")
	case elemEvent:
		b.finishEvent()
	case b.leaf:
		b.target = targetNone
		b.leaf = ""
	}
}

func (b *Builder) finishEvent() {
	if b.current == nil {
		return
	}

	if b.broken {
		b.logger.Warn().Msg("dropping event without id attribute")
		b.dropped++
	} else {
		b.store.Insert(b.current)
		b.records++
	}

	b.current = nil
	b.broken = false
	b.target = targetNone
	b.leaf = ""
}

func attr(attrs map[string]string, name string) *string {
	if v, ok := attrs[name]; ok {
		return &v
	}
	return nil
}

func appendField(field *string, data []byte) string {
	if field == nil {
		return string(data)
	}
	return *field + string(data)
}
