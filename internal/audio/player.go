package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cardsound/internal/cache"
	"github.com/ebitengine/oto/v3"
)

// PlayerConfig contains configuration for the output device.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	Channels   int // 1 = mono, 2 = stereo
	BitDepth   int // 16 bits per sample
	BufferSize int // Per-player buffer in bytes
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100, // CD quality
		Channels:   2,
		BitDepth:   16,
		BufferSize: 4096,
	}
}

// validateConfig validates the player configuration.
func validateConfig(config PlayerConfig) error {
	// OTO only supports specific sample rates reliably
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}

	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}

	if config.BitDepth != 16 {
		return fmt.Errorf("bit depth must be 16, got %d", config.BitDepth)
	}

	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}

	return nil
}

// Option configures a backend.
type Option func(*OtoBackend)

// WithLogger sets the backend logger.
func WithLogger(logger *log.Logger) Option {
	return func(b *OtoBackend) {
		b.logger = logger
	}
}

// OtoBackend opens sounds from a filesystem and plays them on the default
// output device. Only one OtoBackend may exist per process, because oto
// allows a single context.
type OtoBackend struct {
	fsys    fs.FS
	context *oto.Context
	config  PlayerConfig
	logger  *log.Logger
}

var _ cache.Backend = (*OtoBackend)(nil)

// NewOtoBackend creates the oto context and waits until the device is ready.
// Locations passed to Open are resolved inside fsys.
func NewOtoBackend(fsys fs.FS, config PlayerConfig, opts ...Option) (*OtoBackend, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(config.BufferSize) * time.Second / time.Duration(config.SampleRate*config.Channels*bytesPerSample),
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	<-readyChan

	b := &OtoBackend{
		fsys:    fsys,
		context: ctx,
		config:  config,
		logger:  log.Default().WithPrefix("audio"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Open reads and fully decodes location, so the returned handle can play
// through without stalling.
func (b *OtoBackend) Open(ctx context.Context, location string) (cache.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := normalizeLocation(location)
	pcm, err := decodeFile(b.fsys, name, b.config)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := newPCMSource(pcm.Data)
	player := b.context.NewPlayer(source)
	player.SetBufferSize(b.config.BufferSize)

	b.logger.Debug("Decoded sound", "path", name, "duration", pcm.Duration(), "bytes", len(pcm.Data))

	return &OtoHandle{
		backend:  b,
		player:   player,
		source:   source,
		duration: pcm.Duration(),
	}, nil
}

// OtoHandle is a decoded sound bound to its own oto player.
type OtoHandle struct {
	backend  *OtoBackend
	duration time.Duration

	mu     sync.Mutex
	player *oto.Player
	source *pcmSource
	closed bool
}

var _ cache.Handle = (*OtoHandle)(nil)

// Play starts playback at the current position.
func (h *OtoHandle) Play(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandleClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := h.backend.context.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	h.player.Play()
	return nil
}

// Pause suspends playback.
func (h *OtoHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandleClosed
	}
	h.player.Pause()
	return nil
}

// Position returns the position of the sample currently audible.
func (h *OtoHandle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0
	}
	pos := h.source.position(int64(h.player.BufferedSize()))
	return bytesToDuration(pos, h.backend.config.SampleRate, h.backend.config.Channels)
}

// SetPosition seeks to pos, discarding anything already buffered.
func (h *OtoHandle) SetPosition(pos time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandleClosed
	}
	offset := durationToBytes(pos, h.backend.config.SampleRate, h.backend.config.Channels)
	if _, err := h.player.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %v: %w", pos, err)
	}
	return nil
}

// Volume returns the player volume.
func (h *OtoHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0
	}
	return h.player.Volume()
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (h *OtoHandle) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandleClosed
	}
	h.player.SetVolume(volume)
	return nil
}

// Loop reports whether playback wraps around at the end.
func (h *OtoHandle) Loop() bool {
	return h.source.looping()
}

// SetLoop sets whether playback wraps around at the end.
func (h *OtoHandle) SetLoop(loop bool) {
	h.source.setLoop(loop)
}

// IsPaused reports whether the player is idle, including after the sound
// reached its end.
func (h *OtoHandle) IsPaused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.closed || !h.player.IsPlaying()
}

// Duration returns the length of the decoded sound.
func (h *OtoHandle) Duration() time.Duration {
	return h.duration
}

// Size returns the decoded PCM size in bytes.
func (h *OtoHandle) Size() int {
	return h.source.size()
}

// Close stops the player and releases the decoded buffer.
func (h *OtoHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	h.player.Pause()
	err := h.player.Close()
	h.source.release()
	return err
}
