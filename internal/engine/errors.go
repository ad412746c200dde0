package engine

import (
	"errors"
	"fmt"
)

// Error is a structured engine error.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeEngineShutdown indicates an operation on an engine whose worker
	// has stopped or is stopping.
	ErrCodeEngineShutdown ErrorCode = "ENGINE_SHUTDOWN"

	// ErrCodeDuplicateStart indicates Start on an engine that is already
	// running. Logged by the worker; the caller is still acknowledged.
	ErrCodeDuplicateStart ErrorCode = "DUPLICATE_START"

	// ErrCodeTypeMismatch indicates an adapter whose value type differs from
	// the field it was registered against.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeOperatorFailed indicates an operator could not be evaluated
	// while resolving a derived field.
	ErrCodeOperatorFailed ErrorCode = "OPERATOR_FAILED"

	// ErrCodeInvalidSignal indicates a zero Signal or zero InputRef.
	ErrCodeInvalidSignal ErrorCode = "INVALID_SIGNAL"
)

// ErrEngineShutdown is returned by every operation after Shutdown.
var ErrEngineShutdown = &Error{
	Code:    ErrCodeEngineShutdown,
	Message: "engine has been shut down",
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s %v", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so errors.Is(err,
// ErrEngineShutdown) works for wrapped or copied errors.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// IsShutdownError returns true if err reports a shut down engine.
// Uses errors.As to handle wrapped errors.
func IsShutdownError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeEngineShutdown
	}
	return false
}

// IsInvalidSignalError returns true if err reports a zero signal or input.
func IsInvalidSignalError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeInvalidSignal
	}
	return false
}
