package store

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a candidate student carries a grade
	// outside [MinGrade, MaxGrade] after rounding.
	ErrValidation = errors.New("grades must be between 0 and 10")
	// ErrNotFound is returned when no student, subject or grade matches.
	ErrNotFound = errors.New("not found")
	// ErrPersistence is returned when the backend could not save the
	// collection. The in-memory state is left untouched in that case.
	ErrPersistence = errors.New("failed to persist students")
)

// ValidationError names the offending subject and its rounded value.
type ValidationError struct {
	Subject string
	Value   float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("grade %.1f for subject %q is out of range: %s", e.Value, e.Subject, ErrValidation)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
