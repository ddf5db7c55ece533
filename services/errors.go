package services

import (
	"errors"
	"fmt"
)

// ErrMalformedFile is returned when an import file is empty or cannot be
// read as tabular data at all. Nothing is imported in that case.
var ErrMalformedFile = errors.New("file is empty or not readable as tabular data")

// ErrTooLarge is returned when an import file exceeds MaxImportRows.
var ErrTooLarge = errors.New("file exceeds the import row limit")

// InvalidCodeError reports a malformed hierarchy code (empty segment, too
// many segments, or no segments at all).
type InvalidCodeError struct {
	Code   string
	Reason string
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code %q: %s", e.Code, e.Reason)
}

// NotFoundError reports a node id that does not resolve anywhere in the tree.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node %q not found", e.ID)
}

// InvalidFieldError reports a patch value that failed validation. The tree is
// left untouched when it is returned.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StructuralViolationError reports an insert that would break the parent/child
// code invariants or code uniqueness. The insert is rejected without mutation.
type StructuralViolationError struct {
	Code   string
	Reason string
}

func (e *StructuralViolationError) Error() string {
	return fmt.Sprintf("cannot insert %q: %s", e.Code, e.Reason)
}
