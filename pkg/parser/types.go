// Package parser reads sensor event log documents into an event store.
package parser

import (
	"errors"
	"fmt"

	"github.com/ccollicutt/sensorlog/pkg/store"
)

// ErrMalformedDocument is wrapped by errors for documents the XML reader
// could not parse to the end.
var ErrMalformedDocument = errors.New("malformed document")

// Result is the outcome of parsing one document.
type Result struct {
	// Store holds every event completed before parsing stopped.
	Store *store.Store

	// Complete is false when parsing stopped early on a document error.
	Complete bool

	// Records is the number of events inserted into Store.
	Records int

	// Dropped is the number of events discarded for lacking an id.
	Dropped int
}

// DocumentError describes where the XML reader gave up.
type DocumentError struct {
	// Line is the 1-based input line the reader had reached.
	Line int

	// Records is the number of events completed before the error.
	Records int

	Err error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s at line %d (%d events completed): %v", ErrMalformedDocument, e.Line, e.Records, e.Err)
}

// Unwrap exposes both the sentinel and the reader's error.
func (e *DocumentError) Unwrap() []error {
	return []error{ErrMalformedDocument, e.Err}
}
