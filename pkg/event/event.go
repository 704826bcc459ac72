// Package event provides the typed record parsed from a sensor event log.
package event

import (
	"strings"
)

// IDWidth is the width event ids are zero-padded to.
const IDWidth = 10

// Event is a single sensor log record.
//
// Every field is optional. A nil field means the source record did not carry
// it, which is different from an empty value. When an Event is used as a
// filter predicate, nil fields impose no constraint.
//
// Events returned by the parser must not be modified.
type Event struct {
	ID       *string `yaml:"id,omitempty" json:"id,omitempty"`
	Type     *string `yaml:"type,omitempty" json:"type,omitempty"`
	Desc     *string `yaml:"desc,omitempty" json:"desc,omitempty"`
	Action   *string `yaml:"action,omitempty" json:"action,omitempty"`
	Name     *string `yaml:"name,omitempty" json:"name,omitempty"`
	Protocol *string `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	Severity *string `yaml:"severity,omitempty" json:"severity,omitempty"`

	Domain     *string `yaml:"domain,omitempty" json:"domain,omitempty"`
	ClientIP   *string `yaml:"client_ip,omitempty" json:"client_ip,omitempty"`
	ClientPort *string `yaml:"client_port,omitempty" json:"client_port,omitempty"`
	HostIP     *string `yaml:"host_ip,omitempty" json:"host_ip,omitempty"`
	BindIP     *string `yaml:"bindip,omitempty" json:"bindip,omitempty"`
	HostPort   *string `yaml:"host_port,omitempty" json:"host_port,omitempty"`
	ClosedBy   *string `yaml:"closedby,omitempty" json:"closedby,omitempty"`

	// Start is the timestamp text, YYYY-MM-DD HH:MM:SS:fff when complete.
	Start    *string `yaml:"start,omitempty" json:"start,omitempty"`
	RecBytes *string `yaml:"recbytes,omitempty" json:"recbytes,omitempty"`
	Received *string `yaml:"received,omitempty" json:"received,omitempty"`
}

// String returns a pointer to s. It is a convenience for building events and
// predicates in code.
func String(s string) *string {
	return &s
}

// PadID left-pads id with zeros to IDWidth. Longer ids are returned unchanged.
func PadID(id string) string {
	if len(id) >= IDWidth {
		return id
	}
	return strings.Repeat("0", IDWidth-len(id)) + id
}

// Key returns the store key of the event, or "" if it has no id.
func (e *Event) Key() string {
	if e.ID == nil {
		return ""
	}
	return *e.ID
}

// Get returns the value of field f, or nil when it is absent.
func (e *Event) Get(f Field) *string {
	switch f {
	case FieldID:
		return e.ID
	case FieldType:
		return e.Type
	case FieldDesc:
		return e.Desc
	case FieldAction:
		return e.Action
	case FieldName:
		return e.Name
	case FieldProtocol:
		return e.Protocol
	case FieldSeverity:
		return e.Severity
	case FieldDomain:
		return e.Domain
	case FieldClientIP:
		return e.ClientIP
	case FieldClientPort:
		return e.ClientPort
	case FieldHostIP:
		return e.HostIP
	case FieldBindIP:
		return e.BindIP
	case FieldHostPort:
		return e.HostPort
	case FieldClosedBy:
		return e.ClosedBy
	case FieldStart:
		return e.Start
	case FieldRecBytes:
		return e.RecBytes
	case FieldReceived:
		return e.Received
	}
	return nil
}

// Set assigns field f. A nil value marks the field absent.
func (e *Event) Set(f Field, v *string) {
	switch f {
	case FieldID:
		e.ID = v
	case FieldType:
		e.Type = v
	case FieldDesc:
		e.Desc = v
	case FieldAction:
		e.Action = v
	case FieldName:
		e.Name = v
	case FieldProtocol:
		e.Protocol = v
	case FieldSeverity:
		e.Severity = v
	case FieldDomain:
		e.Domain = v
	case FieldClientIP:
		e.ClientIP = v
	case FieldClientPort:
		e.ClientPort = v
	case FieldHostIP:
		e.HostIP = v
	case FieldBindIP:
		e.BindIP = v
	case FieldHostPort:
		e.HostPort = v
	case FieldClosedBy:
		e.ClosedBy = v
	case FieldStart:
		e.Start = v
	case FieldRecBytes:
		e.RecBytes = v
	case FieldReceived:
		e.Received = v
	}
}

// IsEmpty returns true if no field is set.
func (e *Event) IsEmpty() bool {
	for _, f := range AllFields() {
		if e.Get(f) != nil {
			return false
		}
	}
	return true
}

// Matches reports whether the event satisfies every field set on pred.
// Comparison is exact string equality. A nil or empty predicate matches
// every event.
func (e *Event) Matches(pred *Event) bool {
	if pred == nil {
		return true
	}
	for _, f := range AllFields() {
		want := pred.Get(f)
		if want == nil {
			continue
		}
		got := e.Get(f)
		if got == nil || *got != *want {
			return false
		}
	}
	return true
}

// String renders one "name: value" line per present field.
func (e *Event) String() string {
	var b strings.Builder
	for _, f := range AllFields() {
		v := e.Get(f)
		if v == nil {
			continue
		}
		label := f.String() + ":"
		b.WriteString(label)
		b.WriteString(strings.Repeat(" ", labelWidth-len(label)))
		b.WriteString(*v)
		b.WriteByte('\n')
	}
	return b.String()
}

// labelWidth aligns values in String: the longest label plus one space.
const labelWidth = len("client_port: ")
