// Package cache provides the sound cache: a per-session mapping from logical
// sound identifiers to loaded, ready-to-play audio handles, with load,
// preload, play, stop, volume and unload operations.
package cache
