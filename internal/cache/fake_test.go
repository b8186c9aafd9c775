package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// fakeBackend is an in-memory Backend that counts fetches.
type fakeBackend struct {
	mu     sync.Mutex
	fail    map[string]error
	opened  map[string]int
	handles []*fakeHandle

	// gate, when set, holds every Open until it is closed.
	gate chan struct{}

	opens atomic.Int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		fail:   make(map[string]error),
		opened: make(map[string]int),
	}
}

func (b *fakeBackend) failOn(location string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[location] = err
}

func (b *fakeBackend) openCount(location string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened[location]
}

func (b *fakeBackend) Open(ctx context.Context, location string) (Handle, error) {
	b.opens.Add(1)
	if b.gate != nil {
		select {
		case <-b.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened[location]++
	if err := b.fail[location]; err != nil {
		return nil, err
	}
	h := &fakeHandle{location: location, paused: true, volume: 1}
	b.handles = append(b.handles, h)
	return h, nil
}

// lastHandle returns the most recently opened handle.
func (b *fakeBackend) lastHandle() *fakeHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.handles) == 0 {
		return nil
	}
	return b.handles[len(b.handles)-1]
}

// fakeHandle records the state the cache applies to it.
type fakeHandle struct {
	mu       sync.Mutex
	location string
	paused   bool
	closed   bool
	position time.Duration
	volume   float64
	loop     bool
	plays    int
	playErr  error
	pauseErr error
}

var errHandleClosed = errors.New("handle closed")

func (h *fakeHandle) Play(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errHandleClosed
	}
	if h.playErr != nil {
		return h.playErr
	}
	h.plays++
	h.paused = false
	return nil
}

func (h *fakeHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pauseErr != nil {
		return h.pauseErr
	}
	h.paused = true
	return nil
}

func (h *fakeHandle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position
}

func (h *fakeHandle) SetPosition(pos time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.position = pos
	return nil
}

// advance simulates playback progress.
func (h *fakeHandle) advance(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.position += d
}

func (h *fakeHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

func (h *fakeHandle) SetVolume(volume float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volume = volume
	return nil
}

func (h *fakeHandle) Loop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loop
}

func (h *fakeHandle) SetLoop(loop bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loop = loop
}

func (h *fakeHandle) IsPaused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *fakeHandle) setPlayErr(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playErr = err
}
