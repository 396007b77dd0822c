package errors

import (
	"fmt"
)

// ErrorCode classifies a bot-core failure so callers can decide whether to
// re-prompt, abort a sub-flow, or retry on the next cycle.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates malformed user input (date, time,
	// selection). Recoverable: the conversation re-prompts the same step.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates a referenced event no longer exists. The
	// current sub-flow is aborted and the session discarded.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeStoreUnavailable indicates an event store load/save failure.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// ErrCodeNotifierFailed indicates a text or voice dispatch failure.
	ErrCodeNotifierFailed ErrorCode = "NOTIFIER_FAILED"
)

// BotError represents a structured error for bot-core operations.
type BotError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *BotError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *BotError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for the error kinds the core produces.

// InvalidArgument creates a validation error.
func InvalidArgument(msg string) *BotError {
	return &BotError{Code: ErrCodeInvalidArgument, Message: msg}
}

// NotFound creates a not-found error.
func NotFound(msg string) *BotError {
	return &BotError{Code: ErrCodeNotFound, Message: msg}
}

// StoreUnavailable creates a store failure error.
func StoreUnavailable(msg string, cause error) *BotError {
	return &BotError{Code: ErrCodeStoreUnavailable, Message: msg, Cause: cause}
}

// NotifierFailed creates a notifier failure error.
func NotifierFailed(msg string, cause error) *BotError {
	return &BotError{Code: ErrCodeNotifierFailed, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *BotError {
	return &BotError{Code: code, Message: msg, Cause: cause}
}

// GetCode extracts the code from an error, or empty when it is not a
// BotError.
func GetCode(err error) ErrorCode {
	if botErr, ok := err.(*BotError); ok {
		return botErr.Code
	}
	return ""
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if botErr, ok := err.(*BotError); ok {
		return botErr.Code == code
	}
	return false
}
