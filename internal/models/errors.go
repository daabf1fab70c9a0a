package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicatePrediction = errors.New("prediction already recorded for subject")
	ErrDuplicateOutcome    = errors.New("outcome already recorded for subject")
	ErrNoPrediction        = errors.New("no prediction recorded for subject")
)

// ValidationError indicates a malformed or temporally impossible input record.
// Inputs failing validation are rejected at the boundary, never coerced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConflictError indicates a duplicate write to a write-once record. The
// original record is retained untouched.
type ConflictError struct {
	SubjectID string
	Kind      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists for subject %s", e.Kind, e.SubjectID)
}

// IsConflictError reports whether err wraps a ConflictError
func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
