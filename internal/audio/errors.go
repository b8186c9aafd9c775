package audio

import "errors"

var (
	// ErrUnsupportedFormat is returned for assets whose extension has no decoder.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrSampleRateMismatch is returned when an asset's sample rate differs
	// from the output device's. Assets are never resampled.
	ErrSampleRateMismatch = errors.New("sample rate mismatch")

	// ErrDeviceUnavailable is returned when the output device failed.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrHandleClosed is returned when a closed handle is used.
	ErrHandleClosed = errors.New("handle is closed")
)
