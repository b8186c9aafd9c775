package engines

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dgnsrekt/cardsound/internal/tts"
	"golang.org/x/time/rate"
)

// GTTSEngine implements the Engine interface using gTTS (Google Translate TTS).
// It uses gtts-cli to fetch MP3 audio, then normalizes it with ffmpeg.
// This provides free TTS without requiring an API key.
type GTTSEngine struct {
	language   string
	slow       bool
	sampleRate int
	runner     tts.Runner

	// Rate limiting to avoid being blocked by Google
	rateLimiter *rate.Limiter
}

// GTTSConfig holds configuration for the gTTS engine.
type GTTSConfig struct {
	// Language code (e.g., "en", "es", "fr") - defaults to "en"
	Language string

	// Slow speech (--slow flag) - defaults to false
	Slow bool

	// Output sample rate - defaults to 44100
	SampleRate int

	// Rate limit requests per minute to avoid being blocked (defaults to 50)
	RequestsPerMinute int

	// Runner for external commands - defaults to tts.ExecRunner
	Runner tts.Runner
}

// NewGTTSEngine creates a new gTTS engine.
func NewGTTSEngine(config GTTSConfig) *GTTSEngine {
	if config.Language == "" {
		config.Language = "en"
	}
	if config.SampleRate == 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = 50 // Conservative default
	}
	if config.Runner == nil {
		config.Runner = tts.ExecRunner{}
	}

	return &GTTSEngine{
		language:    config.Language,
		slow:        config.Slow,
		sampleRate:  config.SampleRate,
		runner:      config.Runner,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}
}

// Synthesize fetches speech for text and writes it to outPath.
// Process: text → gtts-cli → MP3 → ffmpeg → MP3 at the device rate
func (e *GTTSEngine) Synthesize(ctx context.Context, text, outPath string) error {
	if err := tts.ValidateText(text); err != nil {
		return err
	}

	// Text size limit (Google has limits on text length)
	const maxTextSize = 5000
	if len(text) > maxTextSize {
		return fmt.Errorf("text too long: %d characters (max %d)", len(text), maxTextSize)
	}

	if err := e.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	raw := tempPath(outPath, ".mp3")
	defer os.Remove(raw)

	args := []string{text, "-l", e.language}
	if e.slow {
		args = append(args, "--slow")
	}
	args = append(args, "-o", raw)

	if err := e.runner.Run(ctx, "gtts-cli", args...); err != nil {
		return wrapStep("gtts-cli", err)
	}

	if err := encodeMP3(ctx, e.runner, raw, outPath, e.sampleRate); err != nil {
		return wrapStep("ffmpeg", err)
	}
	return nil
}

// GetInfo returns engine capabilities and configuration.
func (e *GTTSEngine) GetInfo() tts.EngineInfo {
	return tts.EngineInfo{
		Name:       string(tts.EngineGTTS),
		Voice:      e.language,
		SampleRate: e.sampleRate,
		IsOnline:   true, // Requires internet connection
	}
}

// Validate checks that gtts-cli and ffmpeg are installed.
func (e *GTTSEngine) Validate() error {
	return tts.RequireTools(e.runner, tts.EngineGTTS, "gtts-cli", "ffmpeg")
}

// Ensure GTTSEngine implements Engine interface
var _ tts.Engine = (*GTTSEngine)(nil)
