package cache

import (
	"context"
	"time"
)

// Handle is a loaded, playable audio resource bound to one sound.
// Implementations are provided per platform; see the audio package.
type Handle interface {
	// Play begins playback from the current position. Some platforms need an
	// asynchronous start step that can fail, which is reported here.
	Play(ctx context.Context) error

	// Pause suspends playback, keeping the current position.
	Pause() error

	// Position returns the current playback position.
	Position() time.Duration

	// SetPosition moves the playback position.
	SetPosition(pos time.Duration) error

	// Volume returns the current volume (0.0 to 1.0).
	Volume() float64

	// SetVolume sets the volume (0.0 to 1.0).
	SetVolume(volume float64) error

	// Loop reports whether playback restarts at the end of the sound.
	Loop() bool

	// SetLoop sets the loop flag.
	SetLoop(loop bool)

	// IsPaused reports whether playback is inactive.
	IsPaused() bool

	// Close releases the underlying resource binding.
	Close() error
}

// Backend creates handles for sound assets.
type Backend interface {
	// Open binds a new handle to location and blocks until the sound can play
	// through without stalling, loading fails, or ctx is done.
	Open(ctx context.Context, location string) (Handle, error)
}

// DefaultRoot is the asset root sound paths are resolved against.
const DefaultRoot = "sounds"

// PlayOptions holds per-call playback settings.
type PlayOptions struct {
	Volume float64
	Loop   bool
}

// PlayOption configures a single Play call.
type PlayOption func(*PlayOptions)

// WithVolume sets the playback volume. Values outside [0, 1] are clamped.
func WithVolume(volume float64) PlayOption {
	return func(o *PlayOptions) {
		o.Volume = volume
	}
}

// WithLoop sets whether the sound loops.
func WithLoop(loop bool) PlayOption {
	return func(o *PlayOptions) {
		o.Loop = loop
	}
}

func defaultPlayOptions() PlayOptions {
	return PlayOptions{Volume: 1.0}
}

// clampVolume clamps v into [0, 1].
func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
