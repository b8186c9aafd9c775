package tts

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
)

// fakeEngine writes a stub file per word and fails for words in fail.
type fakeEngine struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []string
}

func (e *fakeEngine) Synthesize(_ context.Context, text, outPath string) error {
	e.mu.Lock()
	e.calls = append(e.calls, text)
	err := e.fail[text]
	e.mu.Unlock()

	if err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte("ID3"), 0o644)
}

func (e *fakeEngine) GetInfo() EngineInfo { return EngineInfo{Name: "fake"} }

func (e *fakeEngine) Validate() error { return nil }

func newTestGenerator(t *testing.T, engine Engine, prefix string) (*Generator, string) {
	t.Helper()
	dir := t.TempDir()
	config := GeneratorConfig{
		AssetsDir: dir,
		Root:      "sounds",
		OutDir:    "words",
		Prefix:    prefix,
	}
	return NewGenerator(engine, config, WithLogger(log.New(io.Discard))), dir
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		word   string
		prefix string
		want   string
	}{
		{"Cat", "", "cat"},
		{"  Ice Cream ", "", "ice_cream"},
		{"don't", "", "don_t"},
		{"T-Rex!", "animal", "animal_t_rex_"},
		{"café", "", "caf_"},
		{"42", "number", "number_42"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := SanitizeName(tt.word, tt.prefix); got != tt.want {
				t.Errorf("SanitizeName(%q, %q) = %q, want %q", tt.word, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestSplitWords(t *testing.T) {
	got := SplitWords(" cat, dog ,,bird ,")
	want := []string{"cat", "dog", "bird"}

	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("SplitWords = %v, want %v", got, want)
	}
	if len(SplitWords("")) != 0 {
		t.Error("Empty input should produce no words")
	}
}

func TestGenerator_Generate(t *testing.T) {
	engine := &fakeEngine{}
	gen, dir := newTestGenerator(t, engine, "animal")

	results := gen.Generate(context.Background(), []string{"Cat", "Guinea Pig"})

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	want := []Result{
		{Word: "Cat", Name: "animal_cat", Path: "words/animal_cat.mp3"},
		{Word: "Guinea Pig", Name: "animal_guinea_pig", Path: "words/animal_guinea_pig.mp3"},
	}
	for i, w := range want {
		if results[i] != w {
			t.Errorf("results[%d] = %+v, want %+v", i, results[i], w)
		}
	}

	for _, res := range results {
		name := filepath.Join(dir, "sounds", filepath.FromSlash(res.Path))
		if _, err := os.Stat(name); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}
}

func TestGenerator_FailuresDoNotAbortBatch(t *testing.T) {
	engine := &fakeEngine{fail: map[string]error{"dog": errors.New("say: voice not found")}}
	gen, _ := newTestGenerator(t, engine, "")

	results := gen.Generate(context.Background(), []string{"cat", "dog", "  ", "bird"})

	if len(results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(results))
	}
	if results[0].Err != nil || results[3].Err != nil {
		t.Errorf("cat and bird should succeed: %v, %v", results[0].Err, results[3].Err)
	}
	if !errors.Is(results[1].Err, ErrSynthesisFailed) || results[1].Path != "" {
		t.Errorf("dog should fail with ErrSynthesisFailed and no path, got %+v", results[1])
	}
	if !errors.Is(results[2].Err, ErrEmptyText) {
		t.Errorf("Blank word should fail with ErrEmptyText, got %v", results[2].Err)
	}

	if got := strings.Join(engine.calls, ","); got != "cat,dog,bird" {
		t.Errorf("Engine calls = %q, want in-order calls skipping the blank word", got)
	}

	if len(results.Succeeded()) != 2 || len(results.Failed()) != 2 {
		t.Errorf("Expected 2 successes and 2 failures")
	}
	if err := results.Err(); err == nil || !strings.Contains(err.Error(), `"dog"`) {
		t.Errorf("Results.Err() should mention dog, got %v", err)
	}
}

func TestGenerator_FatalErrorStopsBatch(t *testing.T) {
	unavailable := NewTTSError(ErrorCodeEngineUnavailable, "say not found in PATH", nil)
	engine := &fakeEngine{fail: map[string]error{"dog": unavailable}}
	gen, _ := newTestGenerator(t, engine, "")

	results := gen.Generate(context.Background(), []string{"cat", "dog", "bird", "fish"})

	if results[0].Err != nil {
		t.Errorf("cat should succeed, got %v", results[0].Err)
	}
	for _, res := range results[1:] {
		if !errors.Is(res.Err, ErrEngineUnavailable) {
			t.Errorf("Expected ErrEngineUnavailable for %q, got %v", res.Word, res.Err)
		}
	}
	if got := strings.Join(engine.calls, ","); got != "cat,dog" {
		t.Errorf("Engine calls = %q, want the batch to stop after dog", got)
	}
}

func TestGenerator_CancelledContext(t *testing.T) {
	engine := &fakeEngine{}
	gen, _ := newTestGenerator(t, engine, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := gen.Generate(ctx, []string{"a", "b"})
	for _, res := range results {
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("Expected context.Canceled for %q, got %v", res.Word, res.Err)
		}
	}
	if len(engine.calls) != 0 {
		t.Errorf("Engine should not run after cancellation, got %v", engine.calls)
	}
}

func TestGenerator_OutputDirFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "public")
	if err := os.WriteFile(blocker, []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	gen := NewGenerator(&fakeEngine{}, GeneratorConfig{AssetsDir: blocker, Root: "sounds", OutDir: "words"},
		WithLogger(log.New(io.Discard)))

	results := gen.Generate(context.Background(), []string{"cat"})

	var terr *TTSError
	if !errors.As(results[0].Err, &terr) || terr.Code != ErrorCodeOutput || !terr.IsFatal() {
		t.Errorf("Expected fatal OUTPUT_FAILURE, got %v", results[0].Err)
	}
}

func TestResults_Manifest(t *testing.T) {
	engine := &fakeEngine{fail: map[string]error{"dog": errors.New("boom")}}
	gen, _ := newTestGenerator(t, engine, "word")

	m := gen.Generate(context.Background(), []string{"cat", "dog"}).Manifest("sounds")

	if m.Root != "sounds" {
		t.Errorf("Root = %q", m.Root)
	}
	sounds := m.Sounds()
	if len(sounds) != 1 {
		t.Fatalf("Manifest should only hold successes, got %v", sounds)
	}
	if sounds["word_cat"] != "words/word_cat.mp3" {
		t.Errorf("word_cat = %q", sounds["word_cat"])
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Generated manifest should be valid: %v", err)
	}
}
