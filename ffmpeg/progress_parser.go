// Package ffmpeg runs assembled ffmpeg invocations: it parses the
// -progress stream, reports monotonic percentages and handles cancellation
// and exit status.
package ffmpeg

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Dayti-0/Video-Musique/internal/timeutil"
	"github.com/Dayti-0/Video-Musique/models"
)

// DefaultMinProgressDelta is the smallest percentage increase reported.
const DefaultMinProgressDelta = 0.5

// ProgressParser turns the key=value lines written by "-progress pipe:1"
// into progress reports.
type ProgressParser struct {
	progress *models.Progress
	minDelta float64

	lastEmitted float64
	ended       bool
}

// NewProgressParser creates a parser for an output of timeline seconds.
// Reports are emitted when the percentage grows by at least minDelta.
func NewProgressParser(timeline, minDelta float64) *ProgressParser {
	if minDelta <= 0 {
		minDelta = DefaultMinProgressDelta
	}
	p := models.NewProgress(timeline)
	p.State = models.ProgressStateEncoding
	return &ProgressParser{progress: p, minDelta: minDelta}
}

// ParseLine consumes one line and returns a report when one is due.
func (pp *ProgressParser) ParseLine(line string) (models.Progress, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok || pp.ended {
		return models.Progress{}, false
	}
	value = strings.TrimSpace(value)

	switch key {
	case "out_time_us", "out_time_ms":
		// Both keys carry microseconds.
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return models.Progress{}, false
		}
		return pp.advance(float64(us) / 1e6)
	case "out_time":
		secs, err := timeutil.ParseSexagesimal(value)
		if err != nil || secs < 0 {
			return models.Progress{}, false
		}
		return pp.advance(secs)
	case "speed":
		if v, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil {
			pp.progress.Speed = v
		}
	case "progress":
		if value == "end" {
			pp.ended = true
			pp.progress.Complete()
			pp.lastEmitted = 100
			return *pp.progress, true
		}
	}
	return models.Progress{}, false
}

func (pp *ProgressParser) advance(outTime float64) (models.Progress, bool) {
	pp.progress.CalculateProgress(outTime)
	if pp.progress.Percent-pp.lastEmitted < pp.minDelta {
		return models.Progress{}, false
	}
	pp.lastEmitted = pp.progress.Percent
	return *pp.progress, true
}

// Ended reports whether progress=end was seen.
func (pp *ProgressParser) Ended() bool {
	return pp.ended
}

// Current returns the latest state, whether or not it was emitted.
func (pp *ProgressParser) Current() models.Progress {
	return *pp.progress
}

// Stream reads the progress stream until EOF, calling emit for every report.
func (pp *ProgressParser) Stream(r io.Reader, emit func(models.Progress)) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		if p, ok := pp.ParseLine(scanner.Text()); ok && emit != nil {
			emit(p)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading ffmpeg progress: %w", err)
	}
	return nil
}

// FormatProgressJSON renders a report as a single JSON line.
func FormatProgressJSON(p models.Progress) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
