package command

import (
	"context"
	"os/exec"
)

// CommandRunner executes a short-lived external command and returns its
// combined output. Probes and capability checks go through it so tests can
// substitute canned tool output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultRunner implements CommandRunner using os/exec.
type DefaultRunner struct{}

// Run executes name with args and returns stdout and stderr combined.
// The output is returned even when the command exits non-zero.
func (DefaultRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// RunnerFunc adapts a function to the CommandRunner interface.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}
