package engines

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgnsrekt/cardsound/internal/tts"
)

func TestSayEngine_Synthesize(t *testing.T) {
	runner := newFakeRunner()
	engine := NewSayEngine(SayConfig{Voice: "Samantha", SampleRate: 48000, Runner: runner})

	out := filepath.Join(t.TempDir(), "animal_cat.mp3")
	if err := engine.Synthesize(context.Background(), "Cat", out); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	aiff := tempPath(out, ".aiff")
	say := runner.call(0)
	if !containsSeq(say, "say", "-v", "Samantha", "-o", aiff, "Cat") {
		t.Errorf("Unexpected say args: %v", say)
	}

	ffmpeg := runner.call(1)
	if !containsSeq(ffmpeg, "-i", aiff) || !containsSeq(ffmpeg, "-ar", "48000", out) {
		t.Errorf("Unexpected ffmpeg args: %v", ffmpeg)
	}
}

func TestSayEngine_Defaults(t *testing.T) {
	info := NewSayEngine(SayConfig{Runner: newFakeRunner()}).GetInfo()

	if info.Name != "say" || info.Voice != "Alex" || info.SampleRate != DefaultSampleRate || info.IsOnline {
		t.Errorf("Unexpected defaults: %+v", info)
	}
}

func TestSayEngine_FFmpegFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.fail["ffmpeg"] = tts.NewTTSError(tts.ErrorCodeEngineTimeout, "ffmpeg did not finish", context.DeadlineExceeded)
	engine := NewSayEngine(SayConfig{Runner: runner})

	err := engine.Synthesize(context.Background(), "dog", filepath.Join(t.TempDir(), "dog.mp3"))

	var terr *tts.TTSError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected *TTSError, got %T", err)
	}
	if terr.Code != tts.ErrorCodeEngineTimeout || !terr.IsRetryable() {
		t.Errorf("Runner error should pass through unchanged, got %v", terr)
	}
}

func TestSayEngine_RemovesTempFileOnFailure(t *testing.T) {
	for _, step := range []string{"say", "ffmpeg"} {
		t.Run(step, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "dog.mp3")
			aiff := tempPath(out, ".aiff")
			if err := os.WriteFile(aiff, []byte("FORM"), 0o644); err != nil {
				t.Fatalf("Failed to write temp file: %v", err)
			}

			runner := newFakeRunner()
			runner.fail[step] = errors.New("exit status 1")
			engine := NewSayEngine(SayConfig{Runner: runner})

			if err := engine.Synthesize(context.Background(), "dog", out); !errors.Is(err, tts.ErrSynthesisFailed) {
				t.Fatalf("Expected ErrSynthesisFailed, got %v", err)
			}
			if _, err := os.Stat(aiff); !os.IsNotExist(err) {
				t.Errorf("Intermediate file should be removed after %s fails", step)
			}
		})
	}
}
