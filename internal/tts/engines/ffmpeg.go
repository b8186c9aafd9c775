package engines

import (
	"context"
	"strconv"
	"strings"

	"github.com/dgnsrekt/cardsound/internal/tts"
)

// DefaultSampleRate matches the default audio backend so generated files
// load without a sample rate mismatch.
const DefaultSampleRate = 44100

// encodeMP3 converts src to MP3 at outPath with libmp3lame VBR quality 2,
// resampled to sampleRate.
func encodeMP3(ctx context.Context, runner tts.Runner, src, outPath string, sampleRate int) error {
	return runner.Run(ctx, "ffmpeg",
		"-y",
		"-loglevel", "error",
		"-i", src,
		"-acodec", "libmp3lame",
		"-q:a", "2",
		"-ar", strconv.Itoa(sampleRate),
		outPath,
	)
}

// tempPath returns the intermediate file written next to outPath.
func tempPath(outPath, ext string) string {
	return strings.TrimSuffix(outPath, ".mp3") + "_temp" + ext
}
