package tagdex

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntry is returned when a candidate entry fails the entry
	// guard or cannot be keyed.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrInvalidQueryParameter is returned for unrecognized or contradictory
	// query arguments. It is raised before any index read.
	ErrInvalidQueryParameter = errors.New("invalid query parameter")

	// ErrAccessViolation is returned when a mutation reaches a read-only
	// collection.
	ErrAccessViolation = errors.New("access violation")

	errTupleEntry = errors.New("import tuple is not an entry")
)

// InvalidEntryError describes a rejected entry.
//
// It matches ErrInvalidEntry with errors.Is. The underlying cause (if any)
// can be accessed via errors.Unwrap.
type InvalidEntryError struct {
	Entry  any
	Reason string
	cause  error
}

func (e *InvalidEntryError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid entry %T: %s: %v", e.Entry, e.Reason, e.cause)
	}
	return fmt.Sprintf("invalid entry %T: %s", e.Entry, e.Reason)
}

func (e *InvalidEntryError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrInvalidEntry}
	}
	return []error{ErrInvalidEntry, e.cause}
}

// QueryError describes a rejected query.
//
// It matches ErrInvalidQueryParameter with errors.Is.
type QueryError struct {
	Reason string
	cause  error
}

// NewQueryError creates a QueryError wrapping cause (which may be nil).
// Query front ends, such as the textual query parser, use it to report
// their own errors under ErrInvalidQueryParameter.
func NewQueryError(reason string, cause error) *QueryError {
	return &QueryError{Reason: reason, cause: cause}
}

func (e *QueryError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid query: %s: %v", e.Reason, e.cause)
	}
	return "invalid query: " + e.Reason
}

func (e *QueryError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrInvalidQueryParameter}
	}
	return []error{ErrInvalidQueryParameter, e.cause}
}

// AccessViolationError is returned by the ReadOnly interceptor.
//
// It matches ErrAccessViolation with errors.Is.
type AccessViolationError struct {
	Op Op
}

func (e *AccessViolationError) Error() string {
	return fmt.Sprintf("access violation: %s on read-only collection", e.Op)
}

func (e *AccessViolationError) Unwrap() error { return ErrAccessViolation }

func invalidEntry(entry any, reason string, cause error) error {
	return &InvalidEntryError{Entry: entry, Reason: reason, cause: cause}
}

func invalidQuery(format string, args ...any) error {
	return &QueryError{Reason: fmt.Sprintf(format, args...)}
}
