package cache

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Cache maps sound identifiers to loaded handles. It owns every handle it
// holds: callers must not close handles returned by Load or Get.
//
// Entries are only removed by Unload or Close; there is no eviction.
// A Cache is safe for concurrent use.
type Cache struct {
	backend Backend
	root    string
	logger  *log.Logger
	metrics *metrics

	mu      sync.RWMutex
	entries map[string]entry

	// generation is bumped by Close; fetches started before it are discarded.
	generation uint64

	// In-flight loads keyed by sound id.
	inflight singleflight.Group
}

// entry is a cached handle together with the path it was loaded from.
type entry struct {
	handle Handle
	path   string
}

type options struct {
	root          string
	logger        *log.Logger
	meterProvider metric.MeterProvider
}

// Option configures a Cache.
type Option func(*options)

// WithRoot sets the asset root that sound paths are resolved against.
func WithRoot(root string) Option {
	return func(o *options) {
		o.root = root
	}
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMeterProvider sets the provider used to create cache metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// New creates an empty cache that opens sounds through backend.
func New(backend Backend, opts ...Option) *Cache {
	o := options{root: DefaultRoot}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default().WithPrefix("sound")
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}

	m, err := newMetrics(o.meterProvider)
	if err != nil {
		o.logger.Warn("Failed to create cache metrics, disabling", "err", err)
		m, _ = newMetrics(noop.NewMeterProvider())
	}

	return &Cache{
		backend: backend,
		root:    o.root,
		logger:  o.logger,
		metrics: m,
		entries: make(map[string]entry),
	}
}

// Resolve returns the backend location for a path relative to the asset root.
func (c *Cache) Resolve(soundPath string) string {
	return path.Join(c.root, filepath.ToSlash(soundPath))
}

// Load returns the handle for id, opening soundPath if id is not cached yet.
//
// Concurrent first loads of the same id share one fetch and return the same
// handle. The fetch is not tied to ctx: when ctx is done Load returns
// ctx.Err(), but the fetch still settles and a successful result is cached.
// On failure nothing is cached and the returned error matches ErrLoadFailed.
// A fetch that settles after Close has run is released instead of cached and
// fails with ErrClosed.
func (c *Cache) Load(ctx context.Context, id, soundPath string) (Handle, error) {
	if h, ok := c.Get(id); ok {
		c.metrics.recordHit(ctx)
		return h, nil
	}

	ch := c.inflight.DoChan(id, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), id, soundPath)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Handle), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetch opens a sound and inserts it. It runs once per in-flight id.
func (c *Cache) fetch(ctx context.Context, id, soundPath string) (Handle, error) {
	// An earlier flight may have settled between Get and DoChan.
	if h, ok := c.Get(id); ok {
		c.metrics.recordHit(ctx)
		return h, nil
	}

	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	location := c.Resolve(soundPath)
	start := time.Now()
	h, err := c.backend.Open(ctx, location)
	c.metrics.recordFetch(ctx, time.Since(start), err)
	if err != nil {
		c.logger.Error("Failed to load sound", "id", id, "path", location, "err", err)
		return nil, loadError(id, location, err)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		if err := h.Close(); err != nil {
			c.logger.Warn("Failed to release sound", "id", id, "err", err)
		}
		c.logger.Debug("Discarded sound loaded across Close", "id", id, "path", location)
		return nil, loadError(id, location, ErrClosed)
	}
	c.entries[id] = entry{handle: h, path: soundPath}
	c.mu.Unlock()
	c.metrics.cached.Add(ctx, 1)

	c.logger.Debug("Loaded sound", "id", id, "path", location)
	return h, nil
}

// Preload loads every sound in sounds concurrently and waits for all of them
// to settle. It returns the first failure, if any.
//
// Sounds that loaded successfully stay cached even when Preload fails.
func (c *Cache) Preload(ctx context.Context, sounds map[string]string) error {
	var g errgroup.Group
	for id, soundPath := range sounds {
		g.Go(func() error {
			_, err := c.Load(ctx, id, soundPath)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.Error("Failed to preload sounds", "count", len(sounds), "err", err)
		return err
	}

	c.logger.Debug("Preloaded sounds", "count", len(sounds))
	return nil
}

// Play restarts id from the beginning. It never loads implicitly: an id that
// is not cached fails with ErrNotLoaded.
//
// One handle is shared per id, so a sound cannot overlap itself; playing it
// again restarts it. Play does not wait for playback to finish.
func (c *Cache) Play(ctx context.Context, id string, opts ...PlayOption) error {
	h, ok := c.Get(id)
	if !ok {
		err := notLoadedError(id)
		c.metrics.recordPlay(ctx, err)
		return err
	}

	o := defaultPlayOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := h.SetPosition(0); err != nil {
		c.logger.Warn("Failed to rewind sound", "id", id, "err", err)
	}
	if err := h.SetVolume(clampVolume(o.Volume)); err != nil {
		c.logger.Warn("Failed to set sound volume", "id", id, "err", err)
	}
	h.SetLoop(o.Loop)

	if err := h.Play(ctx); err != nil {
		c.logger.Error("Failed to play sound", "id", id, "err", err)
		perr := playbackError(id, err)
		c.metrics.recordPlay(ctx, perr)
		return perr
	}

	c.metrics.recordPlay(ctx, nil)
	return nil
}

// Stop pauses id and rewinds it. Unknown ids are ignored and failures are
// logged.
func (c *Cache) Stop(id string) {
	h, ok := c.Get(id)
	if !ok {
		return
	}
	c.stop(id, h)
}

func (c *Cache) stop(id string, h Handle) {
	if err := h.Pause(); err != nil {
		c.logger.Warn("Failed to pause sound", "id", id, "err", err)
	}
	if err := h.SetPosition(0); err != nil {
		c.logger.Warn("Failed to rewind sound", "id", id, "err", err)
	}
}

// SetVolume sets the volume of id, clamped to [0, 1]. Unknown ids are ignored
// and failures are logged.
func (c *Cache) SetVolume(id string, volume float64) {
	h, ok := c.Get(id)
	if !ok {
		return
	}
	if err := h.SetVolume(clampVolume(volume)); err != nil {
		c.logger.Warn("Failed to set sound volume", "id", id, "err", err)
	}
}

// Unload stops id, releases its handle and forgets it. Unknown ids are
// ignored and failures are logged.
func (c *Cache) Unload(id string) {
	if err := c.unload(id); err != nil {
		c.logger.Warn("Failed to release sound", "id", id, "err", err)
	}
}

func (c *Cache) unload(id string) error {
	c.mu.Lock()
	e, ok := c.entries[id]
	if ok {
		delete(c.entries, id)
	}
	c.mu.Unlock()
	if !ok {
		return nil
	}

	c.metrics.cached.Add(context.Background(), -1)
	c.stop(id, e.handle)
	c.logger.Debug("Unloaded sound", "id", id)
	return e.handle.Close()
}

// IsPlaying reports whether id is cached and not paused.
func (c *Cache) IsPlaying(id string) bool {
	h, ok := c.Get(id)
	if !ok {
		return false
	}
	return !h.IsPaused()
}

// Get returns the cached handle for id.
func (c *Cache) Get(id string) (Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	return e.handle, ok
}

// Path returns the path id was loaded from, relative to the asset root.
func (c *Cache) Path(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	return e.path, ok
}

// Len returns the number of cached sounds.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// IDs returns the cached sound ids in sorted order.
func (c *Cache) IDs() []string {
	c.mu.RLock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Close unloads every cached sound and discards loads still in flight. The
// cache stays usable afterwards: loads started after Close cache as usual.
func (c *Cache) Close() error {
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()

	var errs []error
	for _, id := range c.IDs() {
		if err := c.unload(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
