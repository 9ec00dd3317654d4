package record

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMissingName is returned when no non-bullet line names the record.
var ErrMissingName = eris.New("missing object name")

// MissingFieldsError reports required labels absent after parsing.
type MissingFieldsError struct {
	Missing []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// ItemError attributes a parse failure to one entry of a batch.
type ItemError struct {
	Index int // 0-based position in the batch
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index+1, e.Err.Error())
}

func (e ItemError) Unwrap() error { return e.Err }

// BatchError rejects a whole batch. Items holds every failing entry in input order.
type BatchError struct {
	Items []ItemError
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Items))
	for i, it := range e.Items {
		parts[i] = it.Error()
	}
	return "batch rejected: " + strings.Join(parts, "; ")
}

// First returns the first failing entry.
func (e *BatchError) First() ItemError {
	return e.Items[0]
}

// Unwrap exposes the per-item errors to errors.Is / errors.As.
func (e *BatchError) Unwrap() []error {
	out := make([]error, len(e.Items))
	for i, it := range e.Items {
		out[i] = it
	}
	return out
}
