package ffprobe

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/Dayti-0/Video-Musique/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	output []byte
	err    error
	calls  [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.output, f.err
}

func TestQuickDuration(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		err         error
		expected    float64
		expectError bool
	}{
		{"plain value", "12.480000\n", nil, 12.48, false},
		{"trailing warning", "7.5\n[mp3 @ 0x1] Estimating duration\n", nil, 7.5, false},
		{"not available", "N/A\n", nil, 0, true},
		{"zero", "0.000000\n", nil, 0, true},
		{"empty", "", nil, 0, true},
		{"tool failure", "No such file", errors.New("exit status 1"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{output: []byte(tt.output), err: tt.err}
			d, err := New("", r).QuickDuration(context.Background(), "/media/a.mp3")

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, d, 1e-9)
		})
	}
}

func TestQuickDuration_Arguments(t *testing.T) {
	r := &fakeRunner{output: []byte("1\n")}
	_, err := New("/opt/ffprobe", r).QuickDuration(context.Background(), "/media/a b.mp3")
	require.NoError(t, err)

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{
		"/opt/ffprobe", "-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=nw=1:nk=1",
		"/media/a b.mp3",
	}, r.calls[0])
}

func TestQuickDuration_EmptyPath(t *testing.T) {
	_, err := New("", &fakeRunner{}).QuickDuration(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestDurations(t *testing.T) {
	output := `{
	  "streams": [
	    {"duration": "N/A", "tags": {"DURATION": "00:03:25.480000000", "language": "eng"}},
	    {"duration": "204.9"}
	  ],
	  "format": {"duration": "N/A"}
	}`
	r := &fakeRunner{output: []byte(output)}

	res, err := New("", r).Durations(context.Background(), "/media/a.mkv")
	require.NoError(t, err)
	assert.Contains(t, strings.Join(r.calls[0], " "), "-show_entries format=duration,stream=duration:stream_tags")

	d, err := res.MaxDuration()
	require.NoError(t, err)
	assert.InDelta(t, 205.48, d, 1e-9)
}

func TestProbe_ParseError(t *testing.T) {
	r := &fakeRunner{output: []byte("not json")}
	_, err := New("", r).Probe(context.Background(), "/media/a.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse ffprobe JSON")
}

func TestProbe_ToolFailure(t *testing.T) {
	r := &fakeRunner{output: []byte("/nonexistent/file.mp4: No such file or directory"), err: errors.New("exit status 1")}
	_, err := New("", r).Probe(context.Background(), "/nonexistent/file.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ffprobe failed")
	assert.Contains(t, err.Error(), "No such file")
}

func TestProbe_Streams(t *testing.T) {
	output := `{
	  "streams": [
	    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
	    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "channels": 2}
	  ],
	  "format": {"filename": "a.mp4", "format_name": "mov,mp4", "duration": "30.5"}
	}`
	res, err := New("", &fakeRunner{output: []byte(output)}).Probe(context.Background(), "a.mp4")
	require.NoError(t, err)

	assert.Len(t, res.GetVideoStreams(), 1)
	assert.Len(t, res.GetAudioStreams(), 1)
	assert.Equal(t, 1920, res.GetVideoStreams()[0].Width)

	d, err := res.GetDuration()
	require.NoError(t, err)
	assert.Equal(t, 30.5, d)
}

func TestProbeResult_GetDuration(t *testing.T) {
	tests := []struct {
		name        string
		result      ProbeResult
		expected    float64
		expectError bool
	}{
		{"Valid duration", ProbeResult{Format: Format{Duration: "30.5"}}, 30.5, false},
		{"Integer duration", ProbeResult{Format: Format{Duration: "120"}}, 120.0, false},
		{"Empty duration", ProbeResult{Format: Format{Duration: ""}}, 0, true},
		{"Invalid duration", ProbeResult{Format: Format{Duration: "invalid"}}, 0, true},
		{"Zero duration", ProbeResult{Format: Format{Duration: "0"}}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			duration, err := tt.result.GetDuration()

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				if duration != tt.expected {
					t.Errorf("Expected duration %f, got %f", tt.expected, duration)
				}
			}
		})
	}
}

func TestProbeResult_MaxDuration(t *testing.T) {
	tests := []struct {
		name        string
		result      ProbeResult
		expected    float64
		expectError bool
	}{
		{
			name:     "container wins",
			result:   ProbeResult{Format: Format{Duration: "60"}, Streams: []Stream{{Duration: "59.9"}}},
			expected: 60,
		},
		{
			name:     "stream wins",
			result:   ProbeResult{Format: Format{Duration: "10"}, Streams: []Stream{{Duration: "12.25"}}},
			expected: 12.25,
		},
		{
			name: "language suffixed tag",
			result: ProbeResult{Streams: []Stream{
				{Tags: map[string]string{"DURATION-eng": "00:01:00.500000000"}},
			}},
			expected: 60.5,
		},
		{
			name:        "nothing usable",
			result:      ProbeResult{Format: Format{Duration: "N/A"}, Streams: []Stream{{Tags: map[string]string{"DURATION": "garbage"}}}},
			expectError: true,
		},
		{
			name:        "zero value",
			result:      ProbeResult{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.result.MaxDuration()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, d, 1e-9)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New("", nil)
	assert.Equal(t, "ffprobe", p.Binary())
	assert.IsType(t, command.DefaultRunner{}, p.runner)
}

func TestProbe_WithRealTool(t *testing.T) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	_, err := New("", nil).Probe(context.Background(), "/nonexistent/file with spaces.mp4")
	assert.Error(t, err, "probing a missing file must fail")
}
