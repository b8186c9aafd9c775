package tts

import (
	"fmt"
	"strings"
)

// EngineType represents the TTS engine selection
type EngineType string

const (
	// EngineSay uses the macOS say command (offline)
	EngineSay EngineType = "say"

	// EngineGTTS uses gtts-cli (Google Translate TTS, online)
	EngineGTTS EngineType = "gtts"
)

// ParseEngineType normalizes an engine name, accepting aliases.
func ParseEngineType(name string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "say", "macos":
		return EngineSay, nil
	case "gtts", "google":
		return EngineGTTS, nil
	default:
		return "", fmt.Errorf("%w: %q\n\nSupported engines:\n  - say (macOS, offline)\n  - gtts (Google TTS, online)", ErrInvalidEngine, name)
	}
}

// ValidateText rejects text an engine cannot hand to its command line tool.
// Text starting with a dash would be parsed as an option.
func ValidateText(text string) error {
	if text == "" {
		return NewTTSError(ErrorCodeEmptyText, "nothing to say", nil)
	}
	if strings.HasPrefix(text, "-") {
		return NewTTSError(ErrorCodeInvalidText, "text must not start with a dash", nil).
			WithContext("text", text)
	}
	return nil
}

// RequireTools checks that every tool is on the PATH.
func RequireTools(runner Runner, engine EngineType, tools ...string) error {
	for _, tool := range tools {
		if _, err := runner.LookPath(tool); err != nil {
			return NewTTSError(ErrorCodeEngineUnavailable,
				fmt.Sprintf("%s not found in PATH (needed by the %s engine)", tool, engine), err).
				WithContext("tool", tool)
		}
	}
	return nil
}
