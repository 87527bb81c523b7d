// Package logging builds the root hclog logger used across the engine.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options controls the root logger.
type Options struct {
	Name   string
	Level  string // trace, debug, info, warn, error, off
	JSON   bool
	Output io.Writer
}

// New creates the root logger. Unknown levels fall back to info.
func New(opts Options) hclog.Logger {
	level := hclog.LevelFromString(strings.TrimSpace(opts.Level))
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	name := opts.Name
	if name == "" {
		name = "videomusique"
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		JSONFormat: opts.JSON,
		Output:     out,
	})
}

// OrNull returns logger, or a logger that discards everything when nil.
func OrNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}

// ValidLevel reports whether s names a level hclog understands.
func ValidLevel(s string) bool {
	return hclog.LevelFromString(strings.TrimSpace(s)) != hclog.NoLevel
}
