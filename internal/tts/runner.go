package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single external command.
const DefaultTimeout = 30 * time.Second

// ExecRunner runs commands with os/exec, each under its own timeout.
type ExecRunner struct {
	Timeout time.Duration
}

var _ Runner = ExecRunner{}

// LookPath implements Runner.
func (r ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run implements Runner. On timeout the process is interrupted, then killed
// if it does not exit promptly.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader("")
	// Children that inherit stderr must not keep Wait blocked after a kill.
	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return NewTTSError(ErrorCodeEngineUnavailable, "cannot start "+name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return timeoutError(name, timeout, ctx.Err())
		}
		return NewTTSError(ErrorCodeEngineFailure,
			fmt.Sprintf("%s failed: %s", name, strings.TrimSpace(stderr.String())), err)

	case <-ctx.Done():
		// Try graceful shutdown first
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
			_ = cmd.Process.Kill()
			<-done
		}
		return timeoutError(name, timeout, ctx.Err())
	}
}

func timeoutError(name string, timeout time.Duration, cause error) error {
	if errors.Is(cause, context.Canceled) {
		return NewTTSError(ErrorCodeEngineFailure, name+" canceled", cause)
	}
	return NewTTSError(ErrorCodeEngineTimeout, fmt.Sprintf("%s did not finish within %v", name, timeout), cause)
}
