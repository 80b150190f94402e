// Package apperr defines the error kinds shared by the planner stores.
//
// Every failure surfaced by a store is either a *ValidationError (the caller
// supplied bad input) or a *NotFoundError (a referenced id does not exist).
// Use errors.Is with ErrValidation / ErrNotFound to test the kind, and
// errors.As to recover the offending field or id.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches any *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports input that violates a structural constraint.
type ValidationError struct {
	Field  string
	Reason string
}

// Validation returns a *ValidationError for field.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an id missing from its store.
type NotFoundError struct {
	Kind string // "task" or "agent"
	ID   string
}

// NotFound returns a *NotFoundError for the given kind and id.
func NotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
