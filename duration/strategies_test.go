package duration

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dayti-0/Video-Musique/command"
	"github.com/Dayti-0/Video-Musique/ffprobe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWAV writes a mono 16-bit PCM file of the given length.
func writeWAV(t *testing.T, path string, sampleRate, seconds int) {
	t.Helper()
	dataSize := sampleRate * seconds * 2

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+dataSize))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&b, binary.LittleEndian, uint16(2))
	binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(dataSize))
	b.Write(make([]byte, dataSize))

	require.NoError(t, os.WriteFile(path, b.Bytes(), 0644))
}

// writeMP3 writes an ID3v2 header followed by n silent MPEG-1 Layer III
// frames at 128 kbit/s, 44.1 kHz.
func writeMP3(t *testing.T, path string, frames int) {
	t.Helper()
	var b bytes.Buffer
	b.Write([]byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 0})
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x00})
	for i := 0; i < frames; i++ {
		b.Write(frame)
	}
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0644))
}

// writeFLAC writes a FLAC signature and a STREAMINFO block only.
func writeFLAC(t *testing.T, path string, sampleRate, samples uint64) {
	t.Helper()
	var b bytes.Buffer
	b.WriteString("fLaC")
	b.Write([]byte{0x80, 0, 0, 34}) // last block, STREAMINFO, 34 bytes
	binary.Write(&b, binary.BigEndian, uint16(4096))
	binary.Write(&b, binary.BigEndian, uint16(4096))
	b.Write(make([]byte, 6)) // frame sizes unknown
	packed := sampleRate<<44 | uint64(1)<<41 | uint64(15)<<36 | samples
	binary.Write(&b, binary.BigEndian, packed)
	b.Write(make([]byte, 16)) // MD5
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0644))
}

func TestWAVProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	writeWAV(t, path, 8000, 3)

	d, err := WAVProbe{}.Duration(context.Background(), path)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, d, 0.01)
}

func TestWAVProbe_RejectsOtherExtensions(t *testing.T) {
	_, err := WAVProbe{}.Duration(context.Background(), "/music/a.mp3")
	assert.Error(t, err)
}

func TestWAVProbe_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav"), 0644))

	_, err := WAVProbe{}.Duration(context.Background(), path)
	assert.Error(t, err)
}

func TestTagProbe_MP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	writeMP3(t, path, 100)

	d, err := TagProbe{}.Duration(context.Background(), path)
	require.NoError(t, err)
	assert.InDelta(t, 100*1152.0/44100.0, d, 0.05)
}

func TestTagProbe_FLAC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.flac")
	writeFLAC(t, path, 44100, 44100*5)

	d, err := TagProbe{}.Duration(context.Background(), path)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)
}

func TestTagProbe_Unidentified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.bin")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x01}, 512), 0644))

	_, err := TagProbe{}.Duration(context.Background(), path)
	assert.Error(t, err)
}

func TestTagProbe_MissingFile(t *testing.T) {
	_, err := TagProbe{}.Duration(context.Background(), "/nonexistent/song.mp3")
	assert.Error(t, err)
}

func TestParseDurationLine(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
		wantErr  bool
	}{
		{"typical", "Input #0, mp3, from 'a.mp3':\n  Duration: 00:03:25.48, start: 0.025057, bitrate: 320 kb/s", 205.48, false},
		{"hours", "  Duration: 01:00:01.5, start: 0", 3601.5, false},
		{"integer seconds", "Duration: 00:00:07, bitrate: N/A", 7, false},
		{"not available", "Duration: N/A, bitrate: N/A", 0, true},
		{"nothing", "a.mp3: Invalid data found when processing input", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDurationLine(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, d, 1e-9)
		})
	}
}

func TestDecodeProbe_ParsesOutputOnFailure(t *testing.T) {
	var gotArgs []string
	runner := command.RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte("  Duration: 00:00:12.50, start: 0.000000\nerror while decoding"), errors.New("exit status 1")
	})

	d, err := DecodeProbe{Binary: "/usr/bin/ffmpeg", Runner: runner}.Duration(context.Background(), "/v/a.mkv")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, d, 1e-9)
	assert.Equal(t, []string{"/usr/bin/ffmpeg", "-hide_banner", "-i", "/v/a.mkv", "-f", "null", "-"}, gotArgs)
}

func TestDecodeProbe_NoDuration(t *testing.T) {
	runner := command.RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("/v/a.mkv: No such file or directory"), errors.New("exit status 1")
	})

	_, err := DecodeProbe{Runner: runner}.Duration(context.Background(), "/v/a.mkv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
}

func TestProbeStrategies_UseProber(t *testing.T) {
	runner := command.RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		for _, a := range args {
			if a == "json" {
				return []byte(`{"streams":[{"duration":"9.5"}],"format":{"duration":"9"}}`), nil
			}
		}
		return []byte("8.25\n"), nil
	})
	prober := ffprobe.New("", runner)

	d, err := QuickProbe{Prober: prober}.Duration(context.Background(), "a.mp4")
	require.NoError(t, err)
	assert.Equal(t, 8.25, d)

	d, err = StreamProbe{Prober: prober}.Duration(context.Background(), "a.mp4")
	require.NoError(t, err)
	assert.Equal(t, 9.5, d)
}
