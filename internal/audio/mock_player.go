package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/cardsound/internal/cache"
)

// PlayerState represents the current state of a mock handle.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MockBackend implements cache.Backend without an audio device.
//
// Sounds come from registered PCM buffers, or from fsys when one is set, in
// which case they are decoded exactly like OtoBackend does. Playback is
// simulated against a clock.
type MockBackend struct {
	mu       sync.Mutex
	fsys     fs.FS
	config   PlayerConfig
	sounds   map[string][]byte
	failures map[string]error
	handles  map[string]*MockHandle
	delay    time.Duration
	gate     chan struct{}
	now      func() time.Time

	opens atomic.Int64
}

var _ cache.Backend = (*MockBackend)(nil)

// NewMockBackend creates a mock backend. fsys may be nil.
func NewMockBackend(fsys fs.FS) *MockBackend {
	return &MockBackend{
		fsys:     fsys,
		config:   DefaultPlayerConfig(),
		sounds:   make(map[string][]byte),
		failures: make(map[string]error),
		handles:  make(map[string]*MockHandle),
		now:      time.Now,
	}
}

// Register makes location available as raw PCM in the backend's format.
func (b *MockBackend) Register(location string, pcm []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := make([]byte, len(pcm))
	copy(data, pcm)
	b.sounds[normalizeLocation(location)] = data
}

// RegisterSilence registers a silent sound of the given length.
func (b *MockBackend) RegisterSilence(location string, d time.Duration) {
	b.mu.Lock()
	config := b.config
	b.mu.Unlock()
	b.Register(location, make([]byte, durationToBytes(d, config.SampleRate, config.Channels)))
}

// Fail makes every Open of location fail with err. A nil err clears it.
func (b *MockBackend) Fail(location string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		delete(b.failures, normalizeLocation(location))
		return
	}
	b.failures[normalizeLocation(location)] = err
}

// SetDelay makes every Open take at least d.
func (b *MockBackend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// SetGate holds every Open until gate is closed. A nil gate disables it.
func (b *MockBackend) SetGate(gate chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gate = gate
}

// SetClock replaces the clock used by handles opened afterwards.
func (b *MockBackend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// SetPlayerConfig changes the device format simulated for later opens.
func (b *MockBackend) SetPlayerConfig(config PlayerConfig) error {
	if err := validateConfig(config); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config = config
	return nil
}

// OpenCount returns how many times Open was called.
func (b *MockBackend) OpenCount() int64 {
	return b.opens.Load()
}

// Handle returns the most recent handle opened for location.
func (b *MockBackend) Handle(location string) (*MockHandle, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.handles[normalizeLocation(location)]
	return h, ok
}

// Open returns a handle for location after the configured delay and gate.
func (b *MockBackend) Open(ctx context.Context, location string) (cache.Handle, error) {
	b.opens.Add(1)

	b.mu.Lock()
	delay, gate := b.delay, b.gate
	b.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	name := normalizeLocation(location)

	b.mu.Lock()
	failure := b.failures[name]
	data, ok := b.sounds[name]
	fsys, now, config := b.fsys, b.now, b.config
	b.mu.Unlock()

	if failure != nil {
		return nil, failure
	}
	if !ok {
		pcm, err := decodeFile(fsys, name, config)
		if err != nil {
			return nil, err
		}
		data = pcm.Data
	}

	h := newMockHandle(name, data, config, now)

	b.mu.Lock()
	b.handles[name] = h
	b.mu.Unlock()

	return h, nil
}

// MockHandle simulates a playable sound. Position advances with the
// backend clock while playing and stops at the end unless looping.
type MockHandle struct {
	location string
	duration time.Duration
	size     int
	now      func() time.Time

	mu        sync.Mutex
	state     PlayerState
	startTime time.Time
	offset    time.Duration // position at startTime
	volume    float64
	loop      bool
	playErr   error

	playCount  atomic.Int64
	pauseCount atomic.Int64
	seekCount  atomic.Int64
	closeCount atomic.Int64
}

var _ cache.Handle = (*MockHandle)(nil)

func newMockHandle(location string, data []byte, config PlayerConfig, now func() time.Time) *MockHandle {
	return &MockHandle{
		location: location,
		duration: bytesToDuration(int64(len(data)), config.SampleRate, config.Channels),
		size:     len(data),
		now:      now,
		state:    StateStopped,
		volume:   1.0,
	}
}

// Play starts simulated playback at the current position. Playing a sound
// that already reached its end starts it over.
func (h *MockHandle) Play(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.settleLocked()
	switch {
	case h.state == StateClosed:
		return ErrHandleClosed
	case ctx.Err() != nil:
		return ctx.Err()
	case h.playErr != nil:
		return h.playErr
	case h.state == StatePlaying:
		return nil
	}

	if h.offset >= h.duration {
		h.offset = 0
	}
	h.startTime = h.now()
	h.state = StatePlaying
	h.playCount.Add(1)
	return nil
}

// Pause suspends simulated playback.
func (h *MockHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.settleLocked()
	if h.state == StateClosed {
		return ErrHandleClosed
	}
	if h.state == StatePlaying {
		h.offset = h.positionLocked()
		h.state = StatePaused
	}
	h.pauseCount.Add(1)
	return nil
}

// Position returns the simulated playback position.
func (h *MockHandle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.settleLocked()
	return h.positionLocked()
}

// SetPosition moves the playback position, clamped to the sound's length.
func (h *MockHandle) SetPosition(pos time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateClosed {
		return ErrHandleClosed
	}
	if pos < 0 {
		return fmt.Errorf("position must not be negative, got %v", pos)
	}

	h.offset = min(pos, h.duration)
	h.startTime = h.now()
	h.seekCount.Add(1)
	return nil
}

// Volume returns the current volume.
func (h *MockHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (h *MockHandle) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateClosed {
		return ErrHandleClosed
	}
	h.volume = volume
	return nil
}

// Loop reports whether playback wraps around at the end.
func (h *MockHandle) Loop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loop
}

// SetLoop sets whether playback wraps around at the end.
func (h *MockHandle) SetLoop(loop bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.settleLocked()
	if h.state == StatePlaying {
		// Re-anchor so the wrap point is computed from the current position.
		h.offset = h.positionLocked()
		h.startTime = h.now()
	}
	h.loop = loop
}

// IsPaused reports whether simulated playback is inactive.
func (h *MockHandle) IsPaused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.settleLocked()
	return h.state != StatePlaying
}

// Close releases the handle. Later calls fail with ErrHandleClosed.
func (h *MockHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateClosed {
		return nil
	}
	h.state = StateClosed
	h.offset = 0
	h.closeCount.Add(1)
	return nil
}

// Duration returns the length of the sound.
func (h *MockHandle) Duration() time.Duration {
	return h.duration
}

// Size returns the PCM size in bytes.
func (h *MockHandle) Size() int {
	return h.size
}

// Location returns the location the handle was opened from.
func (h *MockHandle) Location() string {
	return h.location
}

// State returns the current state.
func (h *MockHandle) State() PlayerState {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.settleLocked()
	return h.state
}

// SetPlayError makes Play fail with err until it is cleared with nil.
func (h *MockHandle) SetPlayError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playErr = err
}

// MockStats counts calls made on a mock handle.
type MockStats struct {
	Plays  int64
	Pauses int64
	Seeks  int64
	Closes int64
}

// Stats returns the call counters.
func (h *MockHandle) Stats() MockStats {
	return MockStats{
		Plays:  h.playCount.Load(),
		Pauses: h.pauseCount.Load(),
		Seeks:  h.seekCount.Load(),
		Closes: h.closeCount.Load(),
	}
}

// positionLocked must be called with mu held.
func (h *MockHandle) positionLocked() time.Duration {
	if h.state != StatePlaying {
		return h.offset
	}
	if h.duration <= 0 {
		return 0
	}

	pos := h.offset + h.now().Sub(h.startTime)
	if pos < h.duration {
		return pos
	}
	if h.loop {
		return pos % h.duration
	}
	return h.duration
}

// settleLocked marks a finished, non-looping sound as paused at its end.
func (h *MockHandle) settleLocked() {
	if h.state != StatePlaying || h.loop {
		return
	}
	if h.positionLocked() >= h.duration {
		h.offset = h.duration
		h.state = StatePaused
	}
}

// errMockUnavailable can be passed to SetPlayError to simulate a refused
// start, the way a browser blocks autoplay.
var errMockUnavailable = errors.New("playback refused")

// RefusePlayback makes Play fail with ErrDeviceUnavailable until cleared
// with SetPlayError(nil).
func (h *MockHandle) RefusePlayback() {
	h.SetPlayError(fmt.Errorf("%w: %w", ErrDeviceUnavailable, errMockUnavailable))
}
