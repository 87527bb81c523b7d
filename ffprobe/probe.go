// Package ffprobe extracts durations and stream metadata from media files
// using the ffprobe command-line tool.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dayti-0/Video-Musique/command"
	"github.com/Dayti-0/Video-Musique/internal/timeutil"
)

// Stream represents a media stream (audio, video, subtitle, etc.)
type Stream struct {
	Index      int               `json:"index"`
	CodecName  string            `json:"codec_name"`
	CodecType  string            `json:"codec_type"`
	Width      int               `json:"width,omitempty"`
	Height     int               `json:"height,omitempty"`
	SampleRate string            `json:"sample_rate,omitempty"`
	Channels   int               `json:"channels,omitempty"`
	Duration   string            `json:"duration,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
}

// TagDuration returns the stream's DURATION tag in seconds, as written by
// Matroska muxers (HH:MM:SS.fffffffff).
func (s Stream) TagDuration() (float64, bool) {
	for k, v := range s.Tags {
		key := strings.ToUpper(k)
		if key != "DURATION" && !strings.HasPrefix(key, "DURATION-") {
			continue
		}
		if d, err := timeutil.ParseSexagesimal(v); err == nil && d > 0 {
			return d, true
		}
	}
	return 0, false
}

// Format represents the container format information.
type Format struct {
	Filename   string `json:"filename,omitempty"`
	FormatName string `json:"format_name,omitempty"`
	Duration   string `json:"duration"`
	Size       string `json:"size,omitempty"`
	BitRate    string `json:"bit_rate,omitempty"`
}

// ProbeResult holds the metadata extracted from a media file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// GetDuration returns the container duration in seconds.
func (pr *ProbeResult) GetDuration() (float64, error) {
	if pr.Format.Duration == "" {
		return 0, fmt.Errorf("duration not available in format metadata")
	}
	return parseSeconds(pr.Format.Duration)
}

// MaxDuration returns the largest positive duration among the container
// duration, every stream duration and every stream DURATION tag.
func (pr *ProbeResult) MaxDuration() (float64, error) {
	best := 0.0
	if d, err := pr.GetDuration(); err == nil && d > best {
		best = d
	}
	for _, s := range pr.Streams {
		if s.Duration != "" {
			if d, err := parseSeconds(s.Duration); err == nil && d > best {
				best = d
			}
		}
		if d, ok := s.TagDuration(); ok && d > best {
			best = d
		}
	}
	if best <= 0 {
		return 0, fmt.Errorf("no positive duration in probe result")
	}
	return best, nil
}

// GetVideoStreams returns all video streams from the media file.
func (pr *ProbeResult) GetVideoStreams() []Stream {
	var videoStreams []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == "video" {
			videoStreams = append(videoStreams, stream)
		}
	}
	return videoStreams
}

// GetAudioStreams returns all audio streams from the media file.
func (pr *ProbeResult) GetAudioStreams() []Stream {
	var audioStreams []Stream
	for _, stream := range pr.Streams {
		if stream.CodecType == "audio" {
			audioStreams = append(audioStreams, stream)
		}
	}
	return audioStreams
}

// Prober runs ffprobe through a CommandRunner.
type Prober struct {
	binary string
	runner command.CommandRunner
}

// New creates a Prober. An empty binary means "ffprobe" from PATH; a nil
// runner means os/exec.
func New(binary string, runner command.CommandRunner) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	if runner == nil {
		runner = command.DefaultRunner{}
	}
	return &Prober{binary: binary, runner: runner}
}

// Binary returns the ffprobe executable used.
func (p *Prober) Binary() string {
	return p.binary
}

// QuickDuration asks ffprobe for the container duration only.
//
// "N/A" and non-positive values are reported as errors.
func (p *Prober) QuickDuration(ctx context.Context, sourcePath string) (float64, error) {
	if sourcePath == "" {
		return 0, fmt.Errorf("source path cannot be empty")
	}

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=nw=1:nk=1",
		sourcePath,
	}
	output, err := p.runner.Run(ctx, p.binary, args...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	// Only the first non-empty line is the value; warnings may follow.
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		d, err := parseSeconds(line)
		if err != nil {
			return 0, err
		}
		if d <= 0 {
			return 0, fmt.Errorf("non-positive duration %q", line)
		}
		return d, nil
	}
	return 0, fmt.Errorf("ffprobe returned no duration")
}

// Durations probes the container and stream durations plus stream tags.
func (p *Prober) Durations(ctx context.Context, sourcePath string) (*ProbeResult, error) {
	return p.probe(ctx, sourcePath, "-show_entries", "format=duration,stream=duration:stream_tags")
}

// Probe analyzes a media file and extracts its streams and format.
//
// Example:
//
//	result, err := ffprobe.New("", nil).Probe(ctx, "/path/to/video.mp4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	duration, _ := result.GetDuration()
func (p *Prober) Probe(ctx context.Context, sourcePath string) (*ProbeResult, error) {
	return p.probe(ctx, sourcePath, "-show_streams", "-show_format")
}

func (p *Prober) probe(ctx context.Context, sourcePath string, selection ...string) (*ProbeResult, error) {
	if sourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}

	args := append([]string{"-v", "quiet", "-print_format", "json"}, selection...)
	args = append(args, sourcePath)

	output, err := p.runner.Run(ctx, p.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}
	return &result, nil
}

func parseSeconds(s string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration '%s': %w", s, err)
	}
	return d, nil
}
