package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cardsound/internal/manifest"
)

// GeneratorConfig controls where generated sounds are written.
type GeneratorConfig struct {
	// AssetsDir is the directory served to the game (e.g. "public").
	AssetsDir string

	// Root is the sound root inside AssetsDir (e.g. "sounds").
	Root string

	// OutDir is the subdirectory of Root that receives the files.
	OutDir string

	// Prefix is prepended to every file name as "<prefix>_".
	Prefix string
}

// DefaultGeneratorConfig returns the default layout: public/sounds/words.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		AssetsDir: "public",
		Root:      "sounds",
		OutDir:    "words",
	}
}

// Generator produces one MP3 per word with a TTS engine.
type Generator struct {
	engine Engine
	config GeneratorConfig
	logger *log.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets the generator logger.
func WithLogger(logger *log.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a generator that writes through engine.
func NewGenerator(engine Engine, config GeneratorConfig, opts ...GeneratorOption) *Generator {
	g := &Generator{
		engine: engine,
		config: config,
		logger: log.Default().WithPrefix("generate"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Result is the outcome for one word. Path is relative to the sound root and
// empty when Err is set.
type Result struct {
	Word string
	Name string
	Path string
	Err  error
}

// Results holds one Result per input word, in input order.
type Results []Result

// Generate synthesizes every word in order. A failing word does not stop the
// batch; its error is recorded in its Result. A fatal error (see
// TTSError.IsFatal) is recorded for that word and every word after it
// without calling the engine again.
func (g *Generator) Generate(ctx context.Context, words []string) Results {
	results := make(Results, len(words))
	outDir := filepath.Join(g.config.AssetsDir, filepath.FromSlash(g.config.Root), filepath.FromSlash(g.config.OutDir))

	g.logger.Info("Generating sounds", "count", len(words), "dir", outDir, "engine", g.engine.GetInfo().Name)

	var fatal error
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fatal = NewTTSError(ErrorCodeOutput, "cannot create output directory", err).WithContext("dir", outDir)
	}

	for i, word := range words {
		name := SanitizeName(word, g.config.Prefix)
		results[i] = Result{Word: word, Name: name}

		switch {
		case fatal != nil:
			results[i].Err = fatal
			continue
		case ctx.Err() != nil:
			results[i].Err = ctx.Err()
			continue
		case strings.TrimSpace(word) == "":
			results[i].Err = NewTTSError(ErrorCodeEmptyText, "blank word", nil)
			continue
		}

		file := name + ".mp3"
		outPath := filepath.Join(outDir, file)

		if err := g.engine.Synthesize(ctx, strings.TrimSpace(word), outPath); err != nil {
			results[i].Err = wrapSynthesisError(word, err)
			g.logger.Error("Failed to generate sound", "word", word, "err", err)

			var terr *TTSError
			if errors.As(results[i].Err, &terr) && terr.IsFatal() {
				g.logger.Warn("Stopping batch", "remaining", len(words)-i-1, "err", err)
				fatal = results[i].Err
			}
			continue
		}

		results[i].Path = path.Join(g.config.OutDir, file)
		g.logger.Info("Generated sound", "word", word, "path", results[i].Path)
	}

	return results
}

func wrapSynthesisError(word string, err error) error {
	var terr *TTSError
	if errors.As(err, &terr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return NewTTSError(ErrorCodeEngineFailure, fmt.Sprintf("cannot synthesize %q", word), err)
}

// Succeeded returns the results without an error.
func (r Results) Succeeded() Results {
	var out Results
	for _, res := range r {
		if res.Err == nil {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the results with an error.
func (r Results) Failed() Results {
	var out Results
	for _, res := range r {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err joins every per-word error.
func (r Results) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%q: %w", res.Word, res.Err))
	}
	return errors.Join(errs...)
}

// Manifest maps each successful result's Name to its Path.
func (r Results) Manifest(root string) *manifest.Manifest {
	m := manifest.New(root)
	for _, res := range r.Succeeded() {
		m.Add(res.Name, res.Path)
	}
	return m
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeName turns a word into a file name: every character outside
// [A-Za-z0-9] becomes "_", the result is lowercased and, when prefix is set,
// prefixed with "<prefix>_".
func SanitizeName(word, prefix string) string {
	name := strings.ToLower(unsafeChars.ReplaceAllString(strings.TrimSpace(word), "_"))
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

// SplitWords splits a comma-separated list, dropping blank entries.
func SplitWords(s string) []string {
	var words []string
	for _, w := range strings.Split(s, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}
