package mutate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidStatus = errors.New("invalid status")
	// ErrBusy refuses a second mutation on a task whose previous one is
	// still in flight.
	ErrBusy = errors.New("task has a change in flight")
	// ErrNotConfirmed means the caller did not collect the confirmation the
	// intent requires.
	ErrNotConfirmed = errors.New("confirmation required")
	// ErrUnsaved rejects archive/restore/delete of a task with no id.
	ErrUnsaved = errors.New("task is not saved yet")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ValidationError is a local form rejection. Fields lists missing required
// fields; Problems lists malformed values.
type ValidationError struct {
	Fields   []string
	Problems []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Fields) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Fields, ", "))
	}
	parts = append(parts, e.Problems...)
	return strings.Join(parts, "; ")
}
