package event

import (
	"fmt"
	"sort"
	"strings"
)

// Field identifies one attribute of an Event.
type Field int

const (
	FieldID Field = iota
	FieldType
	FieldDesc
	FieldAction
	FieldName
	FieldProtocol
	FieldSeverity
	FieldDomain
	FieldClientIP
	FieldClientPort
	FieldHostIP
	FieldBindIP
	FieldHostPort
	FieldClosedBy
	FieldStart
	FieldRecBytes
	FieldReceived

	numFields
)

var fieldNames = [numFields]string{
	FieldID:         "id",
	FieldType:       "type",
	FieldDesc:       "desc",
	FieldAction:     "action",
	FieldName:       "name",
	FieldProtocol:   "protocol",
	FieldSeverity:   "severity",
	FieldDomain:     "domain",
	FieldClientIP:   "client_ip",
	FieldClientPort: "client_port",
	FieldHostIP:     "host_ip",
	FieldBindIP:     "bindip",
	FieldHostPort:   "host_port",
	FieldClosedBy:   "closedby",
	FieldStart:      "start",
	FieldRecBytes:   "recbytes",
	FieldReceived:   "received",
}

var allFields = func() []Field {
	fields := make([]Field, numFields)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}()

// AllFields returns every field in display order.
func AllFields() []Field {
	return allFields
}

// String returns the canonical field name.
func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// ParseField maps a canonical field name to a Field. Matching is
// case-insensitive.
func ParseField(name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range fieldNames {
		if n == name {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event field %q (valid: %s)", name, strings.Join(fieldNames[:], ", "))
}

// PredicateFromMap builds a sparse predicate from field name/value pairs.
// An id value is zero-padded the same way the parser pads ids.
func PredicateFromMap(values map[string]string) (*Event, error) {
	pred := &Event{}

	// Deterministic error reporting for multiple bad keys
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		f, err := ParseField(k)
		if err != nil {
			return nil, err
		}
		v := values[k]
		if f == FieldID {
			v = PadID(v)
		}
		pred.Set(f, String(v))
	}
	return pred, nil
}
