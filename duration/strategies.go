package duration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/tcolgate/mp3"

	"github.com/Dayti-0/Video-Musique/command"
	"github.com/Dayti-0/Video-Musique/ffprobe"
)

// Strategy is one way of finding a file's duration in seconds.
// A strategy returns an error or a non-positive value when it cannot tell.
type Strategy interface {
	Name() string
	Duration(ctx context.Context, path string) (float64, error)
}

// QuickProbe reads the container duration with a single ffprobe field query.
type QuickProbe struct {
	Prober *ffprobe.Prober
}

func (QuickProbe) Name() string { return "ffprobe-format" }

func (s QuickProbe) Duration(ctx context.Context, path string) (float64, error) {
	return s.Prober.QuickDuration(ctx, path)
}

// StreamProbe reads container and stream durations plus DURATION tags and
// keeps the largest.
type StreamProbe struct {
	Prober *ffprobe.Prober
}

func (StreamProbe) Name() string { return "ffprobe-streams" }

func (s StreamProbe) Duration(ctx context.Context, path string) (float64, error) {
	res, err := s.Prober.Durations(ctx, path)
	if err != nil {
		return 0, err
	}
	return res.MaxDuration()
}

// TagProbe identifies the audio container from its header and computes the
// duration natively: MP3 by summing frame durations, FLAC from STREAMINFO.
type TagProbe struct{}

func (TagProbe) Name() string { return "tag" }

func (TagProbe) Duration(ctx context.Context, path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	_, fileType, err := tag.Identify(f)
	if err != nil {
		return 0, fmt.Errorf("identify: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	switch fileType {
	case tag.MP3:
		return mp3Duration(ctx, f)
	case tag.FLAC:
		return flacDuration(f)
	default:
		return 0, fmt.Errorf("unsupported file type %q", fileType)
	}
}

func mp3Duration(ctx context.Context, r io.Reader) (float64, error) {
	d := mp3.NewDecoder(r)
	var frame mp3.Frame
	skipped := 0
	total := 0.0
	frames := 0

	for {
		if frames%1024 == 0 && ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if err := d.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			if frames == 0 {
				return 0, fmt.Errorf("mp3: %w", err)
			}
			break
		}
		total += frame.Duration().Seconds()
		frames++
	}
	if frames == 0 {
		return 0, fmt.Errorf("mp3: no frames")
	}
	return total, nil
}

func flacDuration(r io.Reader) (float64, error) {
	stream, err := flac.New(r)
	if err != nil {
		return 0, fmt.Errorf("flac: %w", err)
	}
	info := stream.Info
	if info == nil || info.SampleRate == 0 || info.NSamples == 0 {
		return 0, fmt.Errorf("flac: STREAMINFO lacks sample count")
	}
	return float64(info.NSamples) / float64(info.SampleRate), nil
}

// WAVProbe reads the sample count of .wav files.
type WAVProbe struct{}

func (WAVProbe) Name() string { return "wav" }

func (WAVProbe) Duration(ctx context.Context, path string) (float64, error) {
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		return 0, fmt.Errorf("not a .wav file")
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("wav: %w", err)
	}
	return d.Seconds(), nil
}

var durationLine = regexp.MustCompile(`Duration: (\d+):(\d+):(\d+(?:\.\d+)?)`)

// DecodeProbe runs the file through ffmpeg's null muxer and reads the
// Duration line of its diagnostics. The output is parsed even when ffmpeg
// exits non-zero.
type DecodeProbe struct {
	Binary string
	Runner command.CommandRunner
}

func (DecodeProbe) Name() string { return "ffmpeg-decode" }

func (s DecodeProbe) Duration(ctx context.Context, path string) (float64, error) {
	binary := s.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	runner := s.Runner
	if runner == nil {
		runner = command.DefaultRunner{}
	}

	output, runErr := runner.Run(ctx, binary, "-hide_banner", "-i", path, "-f", "null", "-")
	d, err := ParseDurationLine(string(output))
	if err != nil {
		if runErr != nil {
			return 0, fmt.Errorf("%w (ffmpeg: %v)", err, runErr)
		}
		return 0, err
	}
	return d, nil
}

// ParseDurationLine extracts "Duration: HH:MM:SS.ss" from ffmpeg diagnostics.
func ParseDurationLine(text string) (float64, error) {
	m := durationLine.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("no Duration line in ffmpeg output")
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	sec, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, err
	}
	return float64(h*3600+mins*60) + sec, nil
}
