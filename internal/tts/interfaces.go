package tts

import (
	"context"
)

// Engine turns a word into an MP3 file.
// Implementations live in the engines package.
type Engine interface {
	// Synthesize speaks text and writes the result to outPath as MP3.
	// Any intermediate files are removed before it returns.
	Synthesize(ctx context.Context, text, outPath string) error

	// GetInfo returns engine capabilities and configuration.
	GetInfo() EngineInfo

	// Validate checks that the external tools the engine needs are installed.
	Validate() error
}

// EngineInfo describes engine capabilities and configuration.
type EngineInfo struct {
	Name       string // Engine name (e.g., "say", "gtts")
	Voice      string // Voice or language
	SampleRate int    // Output sample rate in Hz
	IsOnline   bool   // Whether the engine requires internet
}

// Runner executes external commands. It exists so engines can be tested
// without the real tools.
type Runner interface {
	// Run executes name with args and waits for it to finish.
	Run(ctx context.Context, name string, args ...string) error

	// LookPath reports where name is installed.
	LookPath(name string) (string, error)
}
