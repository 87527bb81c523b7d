package ffmpeg

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound is returned when the ffmpeg or ffprobe executable cannot be found.
	ErrToolNotFound = errors.New("ffmpeg: executable not found")

	// ErrLaunchFailed is returned when the process exists but could not be started.
	ErrLaunchFailed = errors.New("ffmpeg: launch failed")

	// ErrProcessFailed matches every *ProcessError.
	ErrProcessFailed = errors.New("ffmpeg: process failed")
)

// ProcessError reports a run that exited with a non-zero status.
type ProcessError struct {
	Category string // Invocation category, e.g. "export"
	ExitCode int    // -1 when the process was killed by a signal
	Output   string // Tail of stderr, verbatim
}

func (e *ProcessError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s failed with exit code %d", e.Category, e.ExitCode)
	}
	return fmt.Sprintf("%s failed with exit code %d: %s", e.Category, e.ExitCode, lastLine(e.Output))
}

// Is makes errors.Is(err, ErrProcessFailed) true for any ProcessError.
func (e *ProcessError) Is(target error) bool {
	return target == ErrProcessFailed
}

func lastLine(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' || s[i] == '\r' {
			return s[i+1:]
		}
	}
	return s
}
