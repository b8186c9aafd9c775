// Package config loads cardsound settings from viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cardsound/internal/audio"
	"github.com/dgnsrekt/cardsound/internal/cache"
	"github.com/dgnsrekt/cardsound/internal/tts"
	"github.com/dgnsrekt/cardsound/internal/tts/engines"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Backend names accepted by audio.backend.
const (
	BackendOto  = "oto"
	BackendMock = "mock"
)

// Config contains all cardsound configuration options.
type Config struct {
	Assets   AssetsConfig
	Audio    AudioConfig
	Manifest string
	TTS      TTSConfig
	Log      LogConfig
}

// AssetsConfig locates sound files on disk.
type AssetsConfig struct {
	Dir  string // served directory, e.g. "public"
	Root string // sound root inside Dir, e.g. "sounds"
}

// AudioConfig contains playback settings.
type AudioConfig struct {
	Backend    string
	SampleRate int
	BufferSize int
	Volume     float64
}

// TTSConfig contains sound generator settings.
type TTSConfig struct {
	Engine            string
	Voice             string
	Language          string
	Slow              bool
	OutDir            string
	Prefix            string
	RequestsPerMinute int
	Timeout           time.Duration
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string
}

// Env holds settings read only from the environment.
type Env struct {
	Debug   bool   `env:"CARDSOUND_DEBUG"`
	LogFile string `env:"CARDSOUND_LOG_FILE"`
}

// LoadEnv parses the environment-only settings.
func LoadEnv() (Env, error) {
	return env.ParseAs[Env]()
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	layout := tts.DefaultGeneratorConfig()

	return Config{
		Assets: AssetsConfig{
			Dir:  layout.AssetsDir,
			Root: cache.DefaultRoot,
		},
		Audio: AudioConfig{
			Backend:    BackendOto,
			SampleRate: 44100,
			BufferSize: 4096,
			Volume:     1.0,
		},
		Manifest: "sounds.yml",
		TTS: TTSConfig{
			Engine:            string(tts.EngineSay),
			Voice:             "Alex",
			Language:          "en",
			OutDir:            layout.OutDir,
			RequestsPerMinute: 50,
			Timeout:           tts.DefaultTimeout,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SetDefaults sets default values in v for every key Load reads.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("assets.dir", d.Assets.Dir)
	v.SetDefault("assets.root", d.Assets.Root)

	v.SetDefault("audio.backend", d.Audio.Backend)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.buffer_size", d.Audio.BufferSize)
	v.SetDefault("audio.volume", d.Audio.Volume)

	v.SetDefault("manifest", d.Manifest)

	v.SetDefault("tts.engine", d.TTS.Engine)
	v.SetDefault("tts.voice", d.TTS.Voice)
	v.SetDefault("tts.language", d.TTS.Language)
	v.SetDefault("tts.slow", d.TTS.Slow)
	v.SetDefault("tts.out_dir", d.TTS.OutDir)
	v.SetDefault("tts.prefix", d.TTS.Prefix)
	v.SetDefault("tts.requests_per_minute", d.TTS.RequestsPerMinute)
	v.SetDefault("tts.timeout", d.TTS.Timeout.String())

	v.SetDefault("log.level", d.Log.Level)
}

// Load reads the configuration from v, expands paths and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v.IsSet("assets.dir") {
		cfg.Assets.Dir = v.GetString("assets.dir")
	}
	if v.IsSet("assets.root") {
		cfg.Assets.Root = v.GetString("assets.root")
	}

	if v.IsSet("audio.backend") {
		cfg.Audio.Backend = strings.ToLower(v.GetString("audio.backend"))
	}
	if v.IsSet("audio.sample_rate") {
		cfg.Audio.SampleRate = v.GetInt("audio.sample_rate")
	}
	if v.IsSet("audio.buffer_size") {
		cfg.Audio.BufferSize = v.GetInt("audio.buffer_size")
	}
	if v.IsSet("audio.volume") {
		cfg.Audio.Volume = v.GetFloat64("audio.volume")
	}

	if v.IsSet("manifest") {
		cfg.Manifest = v.GetString("manifest")
	}

	if v.IsSet("tts.engine") {
		cfg.TTS.Engine = v.GetString("tts.engine")
	}
	if v.IsSet("tts.voice") {
		cfg.TTS.Voice = v.GetString("tts.voice")
	}
	if v.IsSet("tts.language") {
		cfg.TTS.Language = v.GetString("tts.language")
	}
	if v.IsSet("tts.slow") {
		cfg.TTS.Slow = v.GetBool("tts.slow")
	}
	if v.IsSet("tts.out_dir") {
		cfg.TTS.OutDir = v.GetString("tts.out_dir")
	}
	if v.IsSet("tts.prefix") {
		cfg.TTS.Prefix = v.GetString("tts.prefix")
	}
	if v.IsSet("tts.requests_per_minute") {
		cfg.TTS.RequestsPerMinute = v.GetInt("tts.requests_per_minute")
	}
	if v.IsSet("tts.timeout") {
		d, err := time.ParseDuration(v.GetString("tts.timeout"))
		if err != nil {
			return cfg, fmt.Errorf("invalid tts.timeout: %w", err)
		}
		cfg.TTS.Timeout = d
	}

	if v.IsSet("log.level") {
		cfg.Log.Level = v.GetString("log.level")
	}

	var err error
	if cfg.Assets.Dir, err = homedir.Expand(cfg.Assets.Dir); err != nil {
		return cfg, fmt.Errorf("invalid assets.dir: %w", err)
	}
	if cfg.Manifest, err = homedir.Expand(cfg.Manifest); err != nil {
		return cfg, fmt.Errorf("invalid manifest: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c Config) Validate() error {
	var errs []error

	if c.Assets.Dir == "" {
		errs = append(errs, errors.New("assets.dir must not be empty"))
	}
	root := filepath.ToSlash(c.Assets.Root)
	if path.IsAbs(root) || path.Clean(root) == ".." || strings.HasPrefix(path.Clean(root), "../") {
		errs = append(errs, fmt.Errorf("assets.root must be relative to assets.dir, got %q", c.Assets.Root))
	}

	switch c.Audio.Backend {
	case BackendOto, BackendMock:
	default:
		errs = append(errs, fmt.Errorf("audio.backend must be %q or %q, got %q", BackendOto, BackendMock, c.Audio.Backend))
	}
	if c.Audio.SampleRate != 44100 && c.Audio.SampleRate != 48000 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be 44100 or 48000, got %d", c.Audio.SampleRate))
	}
	if c.Audio.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.buffer_size must be positive, got %d", c.Audio.BufferSize))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio.volume must be between 0.0 and 1.0, got %.2f", c.Audio.Volume))
	}

	if _, err := tts.ParseEngineType(c.TTS.Engine); err != nil {
		errs = append(errs, fmt.Errorf("tts.engine: %w", err))
	}
	if c.TTS.RequestsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("tts.requests_per_minute must be positive, got %d", c.TTS.RequestsPerMinute))
	}
	if c.TTS.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("tts.timeout must be positive, got %v", c.TTS.Timeout))
	}
	if len(c.TTS.Language) < 2 || len(c.TTS.Language) > 5 {
		errs = append(errs, fmt.Errorf("tts.language must be 2-5 characters, got %q", c.TTS.Language))
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// AssetsFS returns the filesystem backends read sounds from.
func (c Config) AssetsFS() fs.FS {
	return os.DirFS(c.Assets.Dir)
}

// PlayerConfig returns the output device settings.
func (c Config) PlayerConfig() audio.PlayerConfig {
	pc := audio.DefaultPlayerConfig()
	pc.SampleRate = c.Audio.SampleRate
	pc.BufferSize = c.Audio.BufferSize
	return pc
}

// GeneratorConfig returns where the generator writes files.
func (c Config) GeneratorConfig() tts.GeneratorConfig {
	return tts.GeneratorConfig{
		AssetsDir: c.Assets.Dir,
		Root:      c.Assets.Root,
		OutDir:    c.TTS.OutDir,
		Prefix:    c.TTS.Prefix,
	}
}

// EngineConfig returns the TTS engine settings.
func (c Config) EngineConfig() engines.Config {
	return engines.Config{
		Engine:            c.TTS.Engine,
		Voice:             c.TTS.Voice,
		Language:          c.TTS.Language,
		Slow:              c.TTS.Slow,
		SampleRate:        c.Audio.SampleRate,
		RequestsPerMinute: c.TTS.RequestsPerMinute,
		Runner:            tts.ExecRunner{Timeout: c.TTS.Timeout},
	}
}

// LogLevel returns the parsed log level, defaulting to info.
func (c Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
