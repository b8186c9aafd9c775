package engines

import (
	"context"
	"errors"
	"os"

	"github.com/dgnsrekt/cardsound/internal/tts"
)

// SayEngine speaks with the macOS say command and encodes with ffmpeg.
type SayEngine struct {
	voice      string
	sampleRate int
	runner     tts.Runner
}

// SayConfig holds configuration for the say engine.
type SayConfig struct {
	// Voice name (e.g., "Alex", "Samantha") - defaults to "Alex"
	Voice string

	// Output sample rate - defaults to 44100
	SampleRate int

	// Runner for external commands - defaults to tts.ExecRunner
	Runner tts.Runner
}

// NewSayEngine creates a say engine.
func NewSayEngine(config SayConfig) *SayEngine {
	if config.Voice == "" {
		config.Voice = "Alex"
	}
	if config.SampleRate == 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.Runner == nil {
		config.Runner = tts.ExecRunner{}
	}

	return &SayEngine{
		voice:      config.Voice,
		sampleRate: config.SampleRate,
		runner:     config.Runner,
	}
}

// Synthesize renders text to AIFF with say, then converts it to MP3.
// Process: text → say → AIFF → ffmpeg → MP3
func (e *SayEngine) Synthesize(ctx context.Context, text, outPath string) error {
	if err := tts.ValidateText(text); err != nil {
		return err
	}

	aiff := tempPath(outPath, ".aiff")
	defer os.Remove(aiff)

	if err := e.runner.Run(ctx, "say", "-v", e.voice, "-o", aiff, text); err != nil {
		return wrapStep("say", err)
	}

	if err := encodeMP3(ctx, e.runner, aiff, outPath, e.sampleRate); err != nil {
		return wrapStep("ffmpeg", err)
	}
	return nil
}

// GetInfo returns engine capabilities and configuration.
func (e *SayEngine) GetInfo() tts.EngineInfo {
	return tts.EngineInfo{
		Name:       string(tts.EngineSay),
		Voice:      e.voice,
		SampleRate: e.sampleRate,
		IsOnline:   false,
	}
}

// Validate checks that say and ffmpeg are installed.
func (e *SayEngine) Validate() error {
	return tts.RequireTools(e.runner, tts.EngineSay, "say", "ffmpeg")
}

// wrapStep keeps typed errors from the runner and labels anything else.
func wrapStep(step string, err error) error {
	var terr *tts.TTSError
	if errors.As(err, &terr) {
		return err
	}
	return tts.NewTTSError(tts.ErrorCodeEngineFailure, step+" failed", err)
}

// Ensure SayEngine implements Engine interface
var _ tts.Engine = (*SayEngine)(nil)
