package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"math"
	"path"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// bytesPerSample is fixed: every backend works in signed 16-bit LE.
const bytesPerSample = 2

// PCM is decoded, interleaved signed 16-bit little endian audio.
type PCM struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// Duration returns the playing time of the buffer.
func (p *PCM) Duration() time.Duration {
	return bytesToDuration(int64(len(p.Data)), p.SampleRate, p.Channels)
}

// decodeFile reads name from fsys and decodes it for a device running config.
// A file recorded at another sample rate fails with ErrSampleRateMismatch.
func decodeFile(fsys fs.FS, name string, config PlayerConfig) (*PCM, error) {
	if fsys == nil {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}

	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	pcm, err := Decode(name, raw, config.Channels)
	if err != nil {
		return nil, err
	}
	if pcm.SampleRate != config.SampleRate {
		return nil, fmt.Errorf("%w: %s is %d Hz, device runs at %d Hz",
			ErrSampleRateMismatch, name, pcm.SampleRate, config.SampleRate)
	}
	return pcm, nil
}

func normalizeLocation(location string) string {
	return strings.TrimPrefix(location, "/")
}

// Decode decodes an encoded asset, choosing the decoder by the extension of
// name, and remixes the result to the given channel count.
func Decode(name string, data []byte, channels int) (*PCM, error) {
	var (
		pcm *PCM
		err error
	)

	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".mp3":
		pcm, err = decodeMP3(data)
	case ".ogg", ".oga":
		pcm, err = decodeVorbis(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	return pcm.remix(channels), nil
}

func decodeMP3(data []byte) (*PCM, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	// go-mp3 always produces 16-bit stereo.
	buf, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	return &PCM{Data: buf, SampleRate: d.SampleRate(), Channels: 2}, nil
}

func decodeVorbis(data []byte) (*PCM, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode ogg: %w", err)
	}

	return &PCM{
		Data:       float32ToInt16(samples),
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	}, nil
}

// float32ToInt16 converts samples in [-1, 1] to 16-bit LE, clipping overshoot.
func float32ToInt16(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(int16(math.Round(v*math.MaxInt16))))
	}
	return out
}

// remix converts p to the given channel count. Downmixing to mono averages
// every channel; otherwise missing channels copy the first one and extra
// channels are dropped.
func (p *PCM) remix(channels int) *PCM {
	if p.Channels == channels || p.Channels <= 0 || channels <= 0 {
		return p
	}

	inFrame := p.Channels * bytesPerSample
	frames := len(p.Data) / inFrame
	out := make([]byte, frames*channels*bytesPerSample)

	for f := 0; f < frames; f++ {
		in := p.Data[f*inFrame:]
		for c := 0; c < channels; c++ {
			var s int16
			switch {
			case channels == 1:
				sum := 0
				for i := 0; i < p.Channels; i++ {
					sum += int(sampleAt(in, i))
				}
				s = int16(sum / p.Channels)
			case c < p.Channels:
				s = sampleAt(in, c)
			default:
				s = sampleAt(in, 0)
			}
			binary.LittleEndian.PutUint16(out[(f*channels+c)*bytesPerSample:], uint16(s))
		}
	}

	return &PCM{Data: out, SampleRate: p.SampleRate, Channels: channels}
}

func sampleAt(frame []byte, channel int) int16 {
	return int16(binary.LittleEndian.Uint16(frame[channel*bytesPerSample:]))
}

// bytesToDuration converts a PCM byte count into playing time.
func bytesToDuration(n int64, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := n / int64(channels*bytesPerSample)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// durationToBytes converts playing time into a frame-aligned PCM byte offset.
func durationToBytes(d time.Duration, sampleRate, channels int) int64 {
	if d <= 0 {
		return 0
	}
	frames := int64(d) * int64(sampleRate) / int64(time.Second)
	return frames * int64(channels*bytesPerSample)
}
