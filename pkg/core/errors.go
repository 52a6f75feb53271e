package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies user-facing failures.
type ErrorKind string

// Error kinds.
const (
	KindValidation   ErrorKind = "validation"
	KindCompile      ErrorKind = "compile"
	KindExecution    ErrorKind = "execution"
	KindCancellation ErrorKind = "cancellation"
)

// ErrExecutionCancelled is returned in place of a result that arrived after
// its execution was cancelled.
var ErrExecutionCancelled = errors.New("execution was cancelled")

// ErrNotConnected is returned when no connection could be established.
var ErrNotConnected = errors.New("database connection not established")

// ValidationError reports a malformed operation or definition.
type ValidationError struct {
	Subject string // operation id, table name, ...
	Message string
}

func (e *ValidationError) Error() string {
	if e.Subject == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Subject, e.Message)
}

// CompileError reports a valid request the target dialect cannot express.
type CompileError struct {
	Dialect Dialect
	Feature string
	Message string
}

func (e *CompileError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Dialect, e.Message)
	}
	return fmt.Sprintf("%s does not support %s", e.Dialect, e.Feature)
}

// Unsupported builds a CompileError for a missing dialect feature.
func Unsupported(d Dialect, feature string) *CompileError {
	return &CompileError{Dialect: d, Feature: feature}
}

// ExecutionError reports a failed statement. Index is the zero-based
// position of the failing statement within its batch or script.
type ExecutionError struct {
	Index     int
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("statement %d failed: %v", e.Index+1, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// CancellationError reports a cancel request that could not be honored.
type CancellationError struct {
	ExecutionID string
	Message     string
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("execution %q %s", e.ExecutionID, e.Message)
}

// KindOf returns the ErrorKind of err, defaulting to KindExecution.
func KindOf(err error) ErrorKind {
	var (
		ve *ValidationError
		ce *CompileError
		ca *CancellationError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ce):
		return KindCompile
	case errors.As(err, &ca), errors.Is(err, ErrExecutionCancelled):
		return KindCancellation
	default:
		return KindExecution
	}
}
