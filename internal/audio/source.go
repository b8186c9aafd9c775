package audio

import (
	"errors"
	"io"
	"sync"
)

// pcmSource is the seekable reader an oto player pulls from. It keeps the
// whole decoded buffer alive for the lifetime of the handle and optionally
// wraps around at the end.
//
// oto reads from its own goroutine while handles seek and toggle looping,
// so every field is guarded by mu.
type pcmSource struct {
	mu     sync.Mutex
	data   []byte
	offset int64
	loop   bool
}

func newPCMSource(data []byte) *pcmSource {
	return &pcmSource{data: data}
}

func (s *pcmSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := int64(len(s.data))
	if size == 0 {
		return 0, io.EOF
	}

	n := 0
	for n < len(p) {
		if s.offset >= size {
			if !s.loop {
				break
			}
			s.offset = 0
		}
		c := copy(p[n:], s.data[s.offset:])
		s.offset += int64(c)
		n += c
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (s *pcmSource) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.offset + offset
	case io.SeekEnd:
		abs = int64(len(s.data)) + offset
	default:
		return 0, errors.New("pcm source: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("pcm source: negative position")
	}

	s.offset = abs
	return abs, nil
}

// position returns the read offset minus bytes still queued in the player,
// wrapping backwards across the start when looping.
func (s *pcmSource) position(buffered int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := int64(len(s.data))
	if size == 0 {
		return 0
	}

	pos := s.offset - buffered
	if s.loop {
		pos %= size
		if pos < 0 {
			pos += size
		}
		return pos
	}
	return max(0, min(pos, size))
}

func (s *pcmSource) setLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}

func (s *pcmSource) looping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

func (s *pcmSource) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// release drops the buffer.
func (s *pcmSource) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.offset = 0
}
