// Package watch reloads cached sounds when their asset files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cardsound/internal/cache"
	"github.com/fsnotify/fsnotify"
)

// Loader is the part of the sound cache the watcher drives.
type Loader interface {
	Load(ctx context.Context, id, soundPath string) (cache.Handle, error)
	Unload(id string)
	Resolve(soundPath string) string
}

var _ Loader = (*cache.Cache)(nil)

// DefaultDebounce is how long a file must stay quiet before it is reloaded.
const DefaultDebounce = 100 * time.Millisecond

type sound struct {
	id   string
	path string
}

// Watcher unloads and reloads sounds whose files are written or recreated.
type Watcher struct {
	loader   Loader
	watcher  *fsnotify.Watcher
	files    map[string][]sound
	logger   *log.Logger
	debounce time.Duration
	onReload func(id string, err error)

	once sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher logger.
func WithLogger(logger *log.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets how long a file must stay quiet before it is reloaded.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithReloadHook registers fn to be called after every reload attempt.
func WithReloadHook(fn func(id string, err error)) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// New watches the files behind sounds. dir is the directory the loader's
// resolved locations are relative to.
func New(loader Loader, dir string, sounds map[string]string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		loader:   loader,
		watcher:  fw,
		files:    make(map[string][]sound),
		logger:   log.Default().WithPrefix("watch"),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]struct{})
	for id, soundPath := range sounds {
		name := filepath.Clean(filepath.Join(dir, filepath.FromSlash(loader.Resolve(soundPath))))
		w.files[name] = append(w.files[name], sound{id: id, path: soundPath})
		dirs[filepath.Dir(name)] = struct{}{}
	}

	for d := range dirs {
		if err := fw.Add(d); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", d, err)
		}
		w.logger.Debug("Watching directory", "dir", d)
	}

	return w, nil
}

// Files returns the watched file names in sorted order.
func (w *Watcher) Files() []string {
	names := make([]string, 0, len(w.files))
	for name := range w.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]time.Time)

	tick := w.debounce / 2
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Clean(event.Name)
			if _, tracked := w.files[name]; !tracked {
				continue
			}
			w.logger.Debug("File changed", "file", name, "op", event.Op)
			pending[name] = time.Now().Add(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "err", err)

		case now := <-ticker.C:
			for name, due := range pending {
				if now.Before(due) {
					continue
				}
				delete(pending, name)
				w.reload(ctx, name)
			}
		}
	}
}

// reload swaps every sound backed by name for a freshly loaded handle. A
// failed reload leaves the sound unloaded.
func (w *Watcher) reload(ctx context.Context, name string) {
	for _, s := range w.files[name] {
		w.loader.Unload(s.id)

		_, err := w.loader.Load(ctx, s.id, s.path)
		if err != nil {
			w.logger.Error("Failed to reload sound", "id", s.id, "file", name, "err", err)
		} else {
			w.logger.Info("Reloaded sound", "id", s.id, "file", name)
		}

		if w.onReload != nil {
			w.onReload(s.id, err)
		}
	}
}

// Close stops watching. Run returns once it observes the closed watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
	})
	return err
}
