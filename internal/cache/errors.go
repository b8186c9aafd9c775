package cache

import (
	"errors"
	"fmt"
)

// Common sound cache errors.
var (
	// ErrLoadFailed indicates a sound asset could not be fetched or decoded.
	ErrLoadFailed = errors.New("sound load failed")

	// ErrNotLoaded indicates a sound was used before it was loaded.
	ErrNotLoaded = errors.New("sound not loaded")

	// ErrPlaybackStart indicates the platform refused to begin playback.
	ErrPlaybackStart = errors.New("sound playback could not start")

	// ErrClosed is the cause of a load that was still in flight when the
	// cache was closed.
	ErrClosed = errors.New("cache closed during load")
)

// ErrorCode identifies specific error types.
type ErrorCode string

const (
	ErrorCodeLoadFailure   ErrorCode = "LOAD_FAILURE"
	ErrorCodeNotLoaded     ErrorCode = "NOT_LOADED"
	ErrorCodePlaybackStart ErrorCode = "PLAYBACK_START"
)

// Error is a sound cache error carrying the sound it concerns.
type Error struct {
	Code    ErrorCode
	SoundID string
	Path    string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: sound %q", e.Code, e.SoundID)
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's code.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case ErrorCodeLoadFailure:
		return target == ErrLoadFailed
	case ErrorCodeNotLoaded:
		return target == ErrNotLoaded
	case ErrorCodePlaybackStart:
		return target == ErrPlaybackStart
	default:
		return false
	}
}

// IsRetryable returns true if repeating the call may succeed without first
// calling anything else.
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeLoadFailure, ErrorCodePlaybackStart:
		return true
	default:
		return false
	}
}

func loadError(id, path string, cause error) *Error {
	return &Error{Code: ErrorCodeLoadFailure, SoundID: id, Path: path, Cause: cause}
}

func notLoadedError(id string) *Error {
	return &Error{Code: ErrorCodeNotLoaded, SoundID: id, Cause: errors.New("call Load first")}
}

func playbackError(id string, cause error) *Error {
	return &Error{Code: ErrorCodePlaybackStart, SoundID: id, Cause: cause}
}
