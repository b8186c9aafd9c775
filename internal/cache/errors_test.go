package cache

import (
	"errors"
	"strings"
	"testing"
)

func TestError_IsMatchesCodeSentinel(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name      string
		err       *Error
		sentinel  error
		others    []error
		retryable bool
	}{
		{"load", loadError("a", "sounds/a.mp3", cause), ErrLoadFailed, []error{ErrNotLoaded, ErrPlaybackStart}, true},
		{"not loaded", notLoadedError("a"), ErrNotLoaded, []error{ErrLoadFailed, ErrPlaybackStart}, false},
		{"playback", playbackError("a", cause), ErrPlaybackStart, []error{ErrLoadFailed, ErrNotLoaded}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("Expected %v to match %v", tt.err, tt.sentinel)
			}
			for _, other := range tt.others {
				if errors.Is(tt.err, other) {
					t.Errorf("Did not expect %v to match %v", tt.err, other)
				}
			}
			if tt.err.IsRetryable() != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", tt.err.IsRetryable(), tt.retryable)
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	err := loadError("cat", "sounds/words/cat.mp3", errors.New("no such file"))
	msg := err.Error()

	for _, want := range []string{"LOAD_FAILURE", `"cat"`, "sounds/words/cat.mp3", "no such file"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}
