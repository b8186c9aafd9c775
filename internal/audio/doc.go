// Package audio provides the platform backends behind the sound cache.
//
// OtoBackend decodes MP3 and Ogg Vorbis assets into memory and plays them on
// the default output device through oto/v3. MockBackend keeps everything in
// memory and simulates playback against a clock, for tests and for machines
// without an audio device.
package audio
