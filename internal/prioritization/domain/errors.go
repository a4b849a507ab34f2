package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTaskNotFound = errors.New("scored task not found")
	ErrTaskLocked   = errors.New("task is locked against automatic re-scoring")
	ErrNotLocked    = errors.New("task is not locked")

	// ErrConcurrentUpdate is returned by repositories when a stale copy of a task is saved.
	ErrConcurrentUpdate = errors.New("scored task was modified concurrently")
)

// FieldError describes one invalid field of a TaskInput.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError is the only failure that crosses the scoring boundary.
// It is returned before any metric is computed.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "invalid task input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
