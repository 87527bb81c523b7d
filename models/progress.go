package models

import (
	"fmt"
	"time"
)

// Progress is a single progress report of a running ffmpeg job.
type Progress struct {
	Percent  float64 `json:"percent"`  // 0-100, monotonic within a run
	OutTime  float64 `json:"out_time"` // Seconds of output written so far
	Timeline float64 `json:"timeline"` // Expected output length in seconds
	Speed    float64 `json:"speed"`    // Encoding speed multiplier (2.0 means twice realtime)

	State     ProgressState `json:"state"`
	StartTime time.Time     `json:"start_time"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ProgressState represents the lifecycle state of a job.
type ProgressState string

const (
	ProgressStateQueued    ProgressState = "queued"
	ProgressStateStarting  ProgressState = "starting"
	ProgressStateEncoding  ProgressState = "encoding"
	ProgressStateCompleted ProgressState = "completed"
	ProgressStateFailed    ProgressState = "failed"
	ProgressStateCancelled ProgressState = "cancelled"
)

// ProgressCallback receives progress updates during a run.
type ProgressCallback func(progress Progress)

// NewProgress creates a progress tracker for an output of the given length.
func NewProgress(timeline float64) *Progress {
	now := time.Now()
	return &Progress{
		Timeline:  timeline,
		State:     ProgressStateQueued,
		StartTime: now,
		UpdatedAt: now,
	}
}

// CalculateProgress updates the percentage from the current output time.
// The percentage is clamped to [0, 100] and never decreases.
func (p *Progress) CalculateProgress(outTime float64) {
	p.OutTime = outTime
	if p.Timeline > 0 {
		pct := (outTime / p.Timeline) * 100
		if pct > 100 {
			pct = 100
		}
		if pct > p.Percent {
			p.Percent = pct
		}
	}
	p.UpdatedAt = time.Now()
}

// Complete marks the job as finished at 100%.
func (p *Progress) Complete() {
	p.Percent = 100
	p.State = ProgressStateCompleted
	p.UpdatedAt = time.Now()
}

// EstimatedTimeRemaining extrapolates the ETA from elapsed time and percentage.
func (p *Progress) EstimatedTimeRemaining() time.Duration {
	if p.Percent <= 0 {
		return 0
	}

	elapsed := p.UpdatedAt.Sub(p.StartTime)
	totalEstimated := time.Duration(float64(elapsed) / (p.Percent / 100))
	remaining := totalEstimated - elapsed

	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatSummary returns a human-readable summary of the progress.
func (p *Progress) FormatSummary() string {
	return fmt.Sprintf(
		"Progress: %.1f%% | Speed: %.2fx | ETA: %s",
		p.Percent,
		p.Speed,
		formatDuration(p.EstimatedTimeRemaining()),
	)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "calculating..."
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	seconds = seconds % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}
