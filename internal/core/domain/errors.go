package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent retrieval and evaluation failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDataset indicates the golden dataset failed to parse or validate.
	// The whole load is aborted.
	ErrInvalidDataset = errors.New("invalid golden dataset")

	// Retrieval Errors.

	// ErrNoBackends indicates hybrid search was built without any backend.
	ErrNoBackends = errors.New("no retrieval backends configured")

	// ErrBackendFailed indicates every supplied backend failed.
	ErrBackendFailed = errors.New("all retrieval backends failed")

	// Benchmark Errors.

	// ErrAgentTimeout indicates the agent exceeded the per-query timeout.
	ErrAgentTimeout = errors.New("agent timed out")

	// ErrAgentPanic indicates the agent panicked while answering.
	ErrAgentPanic = errors.New("agent panicked")
)

// DatasetError is a fatal, line-numbered golden dataset error.
type DatasetError struct {
	// Line is the 1-based line number.
	Line int

	// Field is the offending field, if known.
	Field string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *DatasetError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("line %d: field %q: %v", e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Unwrap returns the cause so errors.Is matches both the cause and ErrInvalidDataset.
func (e *DatasetError) Unwrap() []error {
	return []error{ErrInvalidDataset, e.Err}
}

// Dataset validation causes.
var (
	// ErrMissingField indicates a required field is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidEnum indicates a value outside its enumeration.
	ErrInvalidEnum = errors.New("value not in enumeration")

	// ErrDuplicateID indicates two queries share an id.
	ErrDuplicateID = errors.New("duplicate id")
)
