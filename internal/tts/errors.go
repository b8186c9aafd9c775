package tts

import (
	"errors"
	"fmt"
)

// Common generator errors
var (
	// ErrEngineUnavailable indicates the engine's tools are not installed
	ErrEngineUnavailable = errors.New("selected TTS engine is not available")

	// ErrInvalidEngine indicates an unknown engine was specified
	ErrInvalidEngine = errors.New("invalid TTS engine specified")

	// ErrEmptyText indicates a blank word was passed to the generator
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidText indicates text a command line tool would misread
	ErrInvalidText = errors.New("text is not speakable")

	// ErrSynthesisFailed indicates synthesis operation failed
	ErrSynthesisFailed = errors.New("text synthesis failed")
)

// TTSError represents a TTS-specific error with additional context
type TTSError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *TTSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TTSError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for the error's code.
func (e *TTSError) Is(target error) bool {
	switch e.Code {
	case ErrorCodeEngineFailure, ErrorCodeEngineTimeout:
		return target == ErrSynthesisFailed
	case ErrorCodeEngineUnavailable:
		return target == ErrEngineUnavailable
	case ErrorCodeEmptyText:
		return target == ErrEmptyText
	case ErrorCodeInvalidText:
		return target == ErrInvalidText
	default:
		return false
	}
}

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// Engine errors
	ErrorCodeEngineFailure     ErrorCode = "ENGINE_FAILURE"
	ErrorCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrorCodeEngineTimeout     ErrorCode = "ENGINE_TIMEOUT"

	// Input errors
	ErrorCodeEmptyText   ErrorCode = "EMPTY_TEXT"
	ErrorCodeInvalidText ErrorCode = "INVALID_TEXT"

	// Output errors
	ErrorCodeOutput ErrorCode = "OUTPUT_FAILURE"
)

// NewTTSError creates a new TTS error with context
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *TTSError) WithContext(key string, value interface{}) *TTSError {
	e.Context[key] = value
	return e
}

// IsFatal returns true if the rest of a batch is bound to fail too
func (e *TTSError) IsFatal() bool {
	switch e.Code {
	case ErrorCodeEngineUnavailable, ErrorCodeOutput:
		return true
	default:
		return false
	}
}

// IsRetryable returns true if the operation can be retried
func (e *TTSError) IsRetryable() bool {
	return e.Code == ErrorCodeEngineTimeout
}
