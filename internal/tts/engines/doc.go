// Package engines contains the TTS engines used by the sound generator.
// Currently supports say (macOS, offline) and gTTS (online). Both write MP3
// through ffmpeg.
package engines
