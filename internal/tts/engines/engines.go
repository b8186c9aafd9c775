package engines

import (
	"github.com/dgnsrekt/cardsound/internal/tts"
)

// Config selects and configures an engine.
type Config struct {
	Engine            string
	Voice             string // say voice
	Language          string // gTTS language
	Slow              bool
	SampleRate        int
	RequestsPerMinute int
	Runner            tts.Runner
}

// New builds the engine named by config.Engine.
func New(config Config) (tts.Engine, error) {
	engineType, err := tts.ParseEngineType(config.Engine)
	if err != nil {
		return nil, err
	}

	switch engineType {
	case tts.EngineGTTS:
		return NewGTTSEngine(GTTSConfig{
			Language:          config.Language,
			Slow:              config.Slow,
			SampleRate:        config.SampleRate,
			RequestsPerMinute: config.RequestsPerMinute,
			Runner:            config.Runner,
		}), nil
	default:
		return NewSayEngine(SayConfig{
			Voice:      config.Voice,
			SampleRate: config.SampleRate,
			Runner:     config.Runner,
		}), nil
	}
}
