package testman

import (
	"errors"
	"fmt"
)

// RuntimeError represents an operational error that should lead to exit code 2
// Examples include configuration errors, file not found, etc.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// SyncFailureError represents a sync that completed with failed test cases
// or records (exit code 1)
type SyncFailureError struct {
	Message string
}

func (e *SyncFailureError) Error() string {
	return fmt.Sprintf("sync failure: %s", e.Message)
}

// NewSyncFailureError creates a new SyncFailureError
func NewSyncFailureError(message string) *SyncFailureError {
	return &SyncFailureError{Message: message}
}

// IsSyncFailureError checks if the error is or wraps a SyncFailureError
func IsSyncFailureError(err error) bool {
	var syncErr *SyncFailureError
	return err != nil && errors.As(err, &syncErr)
}
