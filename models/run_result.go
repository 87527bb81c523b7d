package models

import (
	"fmt"
	"strings"
	"time"
)

// RunOutcome is the terminal state of an ffmpeg run.
type RunOutcome string

const (
	RunSuccess   RunOutcome = "success"
	RunFailed    RunOutcome = "failed"
	RunCancelled RunOutcome = "cancelled"
)

// RunResult is the outcome of a single ffmpeg run.
//
// A successful result has an output path and no error. A failed result has
// an error and no output path. A cancelled result has neither: the partial
// output has been removed and cancellation is not an error.
type RunResult struct {
	Outcome    RunOutcome    `json:"outcome"`
	OutputPath string        `json:"output_path,omitempty"`
	Err        error         `json:"-"`
	Elapsed    time.Duration `json:"elapsed"`
}

// NewRunSuccess creates a successful RunResult.
//
// Returns an error if outputPath is empty or whitespace-only.
func NewRunSuccess(outputPath string, elapsed time.Duration) (*RunResult, error) {
	r := &RunResult{Outcome: RunSuccess, OutputPath: outputPath, Elapsed: elapsed}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run result: %w", err)
	}
	return r, nil
}

// NewRunFailure creates a failed RunResult. runErr must not be nil.
func NewRunFailure(runErr error, elapsed time.Duration) (*RunResult, error) {
	if runErr == nil {
		return nil, fmt.Errorf("invalid run result: error cannot be nil for failed result")
	}
	return &RunResult{Outcome: RunFailed, Err: runErr, Elapsed: elapsed}, nil
}

// NewRunCancelled creates a cancelled RunResult.
func NewRunCancelled(elapsed time.Duration) *RunResult {
	return &RunResult{Outcome: RunCancelled, Elapsed: elapsed}
}

// Succeeded reports whether the run produced its output.
func (r *RunResult) Succeeded() bool {
	return r.Outcome == RunSuccess
}

// Validate checks that the result has a consistent state.
func (r *RunResult) Validate() error {
	switch r.Outcome {
	case RunSuccess:
		if r.Err != nil {
			return fmt.Errorf("inconsistent state: outcome is success but Err is not nil")
		}
		if strings.TrimSpace(r.OutputPath) == "" {
			return fmt.Errorf("output_path cannot be empty for successful result")
		}
	case RunFailed:
		if r.Err == nil {
			return fmt.Errorf("failed result must have an error")
		}
		if strings.TrimSpace(r.OutputPath) != "" {
			return fmt.Errorf("failed result should not have output_path")
		}
	case RunCancelled:
		if r.Err != nil {
			return fmt.Errorf("cancelled result should not have an error")
		}
		if strings.TrimSpace(r.OutputPath) != "" {
			return fmt.Errorf("cancelled result should not have output_path")
		}
	default:
		return fmt.Errorf("unknown outcome %q", r.Outcome)
	}
	return nil
}
