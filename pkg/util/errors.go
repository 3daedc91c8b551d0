// Package util provides the shared logger and common error types.
package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for the simulator error taxonomy. The REST middleware maps
// these to HTTP statuses; anything else surfaces as 500.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("resource already exists")
	ErrForbidden  = errors.New("operation not allowed")
	ErrFatal      = errors.New("invariant violation")
)

// ValidationError reports a malformed request or input shape.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error from a format string
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing stub, yang tree, or property.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not-found error from a format string
func NewNotFoundError(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a duplicate resource id.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewConflictError creates a conflict error from a format string
func NewConflictError(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ForbiddenError reports an operation the target does not support.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// NewForbiddenError creates a forbidden error from a format string
func NewForbiddenError(format string, args ...interface{}) *ForbiddenError {
	return &ForbiddenError{Message: fmt.Sprintf(format, args...)}
}

// FatalError reports an internal invariant violation, e.g. two list items
// carrying identical keys or an unknown protocol tag.
type FatalError struct {
	Message string
}

func (e *FatalError) Error() string {
	return e.Message
}

func (e *FatalError) Unwrap() error {
	return ErrFatal
}

// NewFatalError creates a fatal error from a format string
func NewFatalError(format string, args ...interface{}) *FatalError {
	return &FatalError{Message: fmt.Sprintf(format, args...)}
}
