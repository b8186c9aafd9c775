package watch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cardsound/internal/audio"
	"github.com/dgnsrekt/cardsound/internal/cache"
)

type reload struct {
	id  string
	err error
}

func setup(t *testing.T, files map[string]string) (string, *audio.MockBackend, *cache.Cache, map[string]string) {
	t.Helper()

	dir := t.TempDir()
	backend := audio.NewMockBackend(nil)
	sounds := make(map[string]string)

	for id, rel := range files {
		name := filepath.Join(dir, "sounds", filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(name, []byte("v1"), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		backend.RegisterSilence("sounds/"+rel, time.Second)
		sounds[id] = rel
	}

	c := cache.New(backend, cache.WithLogger(log.New(io.Discard)))
	if err := c.Preload(context.Background(), sounds); err != nil {
		t.Fatalf("Preload failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return dir, backend, c, sounds
}

func startWatcher(t *testing.T, c *cache.Cache, dir string, sounds map[string]string) <-chan reload {
	t.Helper()

	reloads := make(chan reload, 8)
	w, err := New(c, dir, sounds,
		WithLogger(log.New(io.Discard)),
		WithDebounce(10*time.Millisecond),
		WithReloadHook(func(id string, err error) {
			reloads <- reload{id: id, err: err}
		}),
	)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return reloads
}

func waitReload(t *testing.T, reloads <-chan reload) reload {
	t.Helper()
	select {
	case r := <-reloads:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for reload")
		return reload{}
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir, backend, c, sounds := setup(t, map[string]string{
		"match": "effects/match.mp3",
		"flip":  "effects/flip.mp3",
	})
	reloads := startWatcher(t, c, dir, sounds)

	before, _ := c.Get("match")
	opens := backend.OpenCount()

	name := filepath.Join(dir, "sounds", "effects", "match.mp3")
	if err := os.WriteFile(name, []byte("v2"), 0o644); err != nil {
		t.Fatalf("Failed to rewrite file: %v", err)
	}

	r := waitReload(t, reloads)
	if r.id != "match" || r.err != nil {
		t.Fatalf("Unexpected reload: %+v", r)
	}

	after, ok := c.Get("match")
	if !ok {
		t.Fatal("match should be cached after reload")
	}
	if after == before {
		t.Error("Reload should produce a new handle")
	}
	if backend.OpenCount() != opens+1 {
		t.Errorf("Expected one new open, got %d", backend.OpenCount()-opens)
	}
	if !before.(*audio.MockHandle).IsPaused() || before.(*audio.MockHandle).State() != audio.StateClosed {
		t.Error("Old handle should be closed")
	}
	if err := c.Play(context.Background(), "match"); err != nil {
		t.Errorf("Play after reload failed: %v", err)
	}
}

func TestWatcher_FailedReloadLeavesSoundUnloaded(t *testing.T) {
	dir, backend, c, sounds := setup(t, map[string]string{"win": "win.mp3"})
	reloads := startWatcher(t, c, dir, sounds)

	broken := errors.New("truncated file")
	backend.Fail("sounds/win.mp3", broken)

	if err := os.WriteFile(filepath.Join(dir, "sounds", "win.mp3"), []byte("bad"), 0o644); err != nil {
		t.Fatalf("Failed to rewrite file: %v", err)
	}

	r := waitReload(t, reloads)
	if !errors.Is(r.err, cache.ErrLoadFailed) {
		t.Fatalf("Expected ErrLoadFailed, got %v", r.err)
	}
	if _, ok := c.Get("win"); ok {
		t.Error("Failed reload should leave the sound unloaded")
	}
	if err := c.Play(context.Background(), "win"); !errors.Is(err, cache.ErrNotLoaded) {
		t.Errorf("Expected ErrNotLoaded, got %v", err)
	}
}

func TestWatcher_IgnoresUntrackedFiles(t *testing.T) {
	dir, backend, c, sounds := setup(t, map[string]string{"a": "a.mp3"})
	reloads := startWatcher(t, c, dir, sounds)
	opens := backend.OpenCount()

	if err := os.WriteFile(filepath.Join(dir, "sounds", "other.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	select {
	case r := <-reloads:
		t.Fatalf("Unexpected reload: %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
	if backend.OpenCount() != opens {
		t.Error("Untracked file should not trigger a load")
	}
}

func TestNew_Files(t *testing.T) {
	dir, _, c, sounds := setup(t, map[string]string{
		"one": "numbers/1.mp3",
		"uno": "numbers/1.mp3",
		"two": "numbers/2.mp3",
	})

	w, err := New(c, dir, sounds, WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	files := w.Files()
	if len(files) != 2 {
		t.Fatalf("Expected 2 watched files, got %v", files)
	}
	want := filepath.Join(dir, "sounds", "numbers", "1.mp3")
	if files[0] != want {
		t.Errorf("files[0] = %q, want %q", files[0], want)
	}
	if len(w.files[want]) != 2 {
		t.Errorf("Expected two ids sharing %s", want)
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	c := cache.New(audio.NewMockBackend(nil), cache.WithLogger(log.New(io.Discard)))
	_, err := New(c, t.TempDir(), map[string]string{"x": "missing/x.mp3"})
	if err == nil {
		t.Error("Expected error watching a missing directory")
	}
}
