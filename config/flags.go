package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Dayti-0/Video-Musique/models"
)

// MergeFromFlags parses command-line flags and overrides config values.
// It returns the positional arguments.
func (c *Config) MergeFromFlags(name string, args []string) ([]string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { PrintUsage(os.Stderr) }

	output := fs.String("o", "", "Output file path")

	// Config file override (handled by LoadConfig before this function is called)
	_ = fs.String("config", "", "Path to config file (default: search standard locations)")

	// Tools
	ffmpegPath := fs.String("ffmpeg", "", "ffmpeg executable (default: from config)")
	ffprobePath := fs.String("ffprobe", "", "ffprobe executable (default: from config)")
	hardware := fs.String("hardware", "", "Hardware backend: auto, none, nvidia, amd, intel, vaapi (default: from config)")

	// Logging
	logLevel := fs.String("log-level", "", "Log level: trace, debug, info, warn, error (default: from config)")
	logJSON := fs.Bool("log-json", false, "Log in JSON format")
	verbose := fs.Bool("verbose", false, "Shortcut for -log-level debug")

	// Project defaults
	audioCrossfade := fs.Int("audio-crossfade", -1, "Music crossfade in seconds, 1-20 (default: from config)")
	videoCrossfade := fs.Float64("video-crossfade", -1, "Clip crossfade in seconds, 0-5 (default: from config)")
	videoVolume := fs.Float64("video-volume", -1, "Clip audio volume in percent, 0-110 (default: from config)")
	musicVolume := fs.Float64("music-volume", -1, "Music volume in percent, 0-110 (default: from config)")
	preset := fs.String("preset", "", "Speed preset: fastest, fast, balanced, quality (default: from config)")
	cutMusic := fs.Bool("cut-music", false, "Cut the music at the end of the video")
	noCutMusic := fs.Bool("no-cut-music", false, "Let the music run past the end of the video")
	noHWAccel := fs.Bool("no-hwaccel", false, "Disable hardware encoding")
	noVideoAudio := fs.Bool("no-video-audio", false, "Drop the audio of the clips")
	noMusic := fs.Bool("no-music", false, "Drop the music playlist")

	// Probing
	workers := fs.Int("workers", -1, "Concurrent duration probes (0 = default)")
	probeTimeout := fs.Duration("probe-timeout", -1, "Per-strategy probe timeout (0 = none)")
	cacheDB := fs.String("cache-db", "", "SQLite duration cache path")
	noCache := fs.Bool("no-cache", false, "Disable the persistent duration cache")

	// Preview and runner
	previewSeconds := fs.Int("preview-seconds", -1, "Preview length in seconds (default: from config)")
	tempDir := fs.String("temp-dir", "", "Directory for preview files (default: system temp dir)")
	grace := fs.Duration("grace-period", -1, "Delay between terminate and kill on cancel")
	keepPartial := fs.Bool("keep-partial", false, "Keep the output of a failed export")

	dryRun := fs.Bool("dry-run", false, "Print the ffmpeg command without running it")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override with flag values (only if explicitly set)
	if *output != "" {
		c.Output = *output
	}
	if *ffmpegPath != "" {
		c.FFmpegPath = *ffmpegPath
	}
	if *ffprobePath != "" {
		c.FFprobePath = *ffprobePath
	}
	if *hardware != "" {
		c.Hardware = *hardware
	}

	if *logLevel != "" {
		c.Log.Level = *logLevel
	} else if *verbose {
		c.Log.Level = "debug"
	}
	if *logJSON {
		c.Log.JSON = true
	}

	// Project defaults (-1 means not set)
	if *audioCrossfade >= 0 {
		c.Defaults.AudioCrossfade = *audioCrossfade
	}
	if *videoCrossfade >= 0 {
		c.Defaults.VideoCrossfade = *videoCrossfade
	}
	if *videoVolume >= 0 {
		c.Defaults.VideoVolume = *videoVolume
	}
	if *musicVolume >= 0 {
		c.Defaults.MusicVolume = *musicVolume
	}
	if *preset != "" {
		p, err := models.ParseSpeedPreset(*preset)
		if err != nil {
			return nil, err
		}
		c.Defaults.SpeedPreset = p
	}
	if *cutMusic {
		c.Defaults.CutMusicAtEnd = true
	}
	if *noCutMusic {
		c.Defaults.CutMusicAtEnd = false
	}
	if *noHWAccel {
		c.Defaults.UseHardwareAcceleration = false
	}
	if *noVideoAudio {
		c.Defaults.IncludeVideoAudio = false
	}
	if *noMusic {
		c.Defaults.IncludeMusic = false
	}

	if *workers >= 0 {
		c.Probe.Workers = *workers
	}
	if *probeTimeout >= 0 {
		c.Probe.Timeout = *probeTimeout
	}
	if *cacheDB != "" {
		c.Probe.CacheDB = *cacheDB
	}
	if *noCache {
		c.Probe.CacheDB = ""
	}

	if *previewSeconds > 0 {
		c.Preview.Seconds = *previewSeconds
	}
	if *tempDir != "" {
		c.Preview.TempDir = *tempDir
	}
	if *grace >= 0 {
		c.Runner.GracePeriod = *grace
	}
	if *keepPartial {
		c.Runner.KeepPartial = true
	}
	if *dryRun {
		c.DryRun = true
	}

	return fs.Args(), nil
}

// PrintUsage prints help text
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, `videomusique - Join video clips with crossfades and mix them with a music playlist

USAGE:
  videomusique export  [OPTIONS] -o OUTPUT PROJECT.yaml
  videomusique preview [OPTIONS] PROJECT.yaml
  videomusique plan    [OPTIONS] -o OUTPUT PROJECT.yaml
  videomusique duration [OPTIONS] FILE...
  videomusique hwinfo  [OPTIONS]

COMMANDS:
  export     Render the project to OUTPUT
  preview    Render the first seconds of the project to a temporary file
  plan       Print the ffmpeg command of an export without running it
  duration   Print the duration of media files
  hwinfo     Show the external tools and the selected video encoder

CONFIGURATION:
  -config string
        Path to config file (default: search ./videomusique.yaml, ~/.videomusique/config.yaml, /etc/videomusique/config.yaml)
  -ffmpeg string, -ffprobe string
        External tool paths (default: ffmpeg, ffprobe)
  -hardware string
        auto, none, nvidia, amd, intel, vaapi (default: auto)
  -log-level string, -log-json, -verbose
        Logging (default: info, text)

PROJECT DEFAULTS (overridden by the project file settings):
  -audio-crossfade int     Music crossfade, 1-20 seconds (default: 10)
  -video-crossfade float   Clip crossfade, 0-5 seconds (default: 1)
  -video-volume float      Clip audio volume, 0-110%% (default: 100)
  -music-volume float      Music volume, 0-110%% (default: 70)
  -preset string           fastest, fast, balanced, quality (default: balanced)
  --cut-music / --no-cut-music
  --no-hwaccel, --no-video-audio, --no-music

PROBING:
  -workers int             Concurrent probes (default: 4)
  -probe-timeout duration  Per-strategy limit (default: 30s)
  -cache-db string         Persistent duration cache (SQLite)
  --no-cache

PREVIEW AND EXECUTION:
  -preview-seconds int     Preview length (default: 60)
  -temp-dir string         Preview directory (default: system temp dir)
  -grace-period duration   Delay before killing a cancelled ffmpeg (default: 3s)
  --keep-partial           Keep the output of a failed export
  --dry-run                Print the command instead of running it

PROJECT FILE:
  videos:
    - path: intro.mp4
    - path: beach.mov
  music:
    - path: song.mp3
      volume: 0.8
  settings:
    audio_crossfade: 8
    cut_music_at_end: true

  Priority: CLI flags > Config file > Defaults

`)
}

// PrintConfig prints the effective configuration
func (c *Config) PrintConfig(w io.Writer) {
	d := c.Defaults
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "                 Effective Configuration                  ")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	if c.Source != "" {
		fmt.Fprintf(w, "Config File:    %s\n", c.Source)
	}
	fmt.Fprintf(w, "FFmpeg:         %s\n", c.FFmpegPath)
	fmt.Fprintf(w, "FFprobe:        %s\n", c.FFprobePath)
	fmt.Fprintf(w, "Hardware:       %s\n", c.Hardware)
	fmt.Fprintf(w, "Log Level:      %s\n", c.Log.Level)

	fmt.Fprintln(w, "\nProject Defaults:")
	fmt.Fprintf(w, "  Audio Crossfade: %d s\n", d.AudioCrossfade)
	fmt.Fprintf(w, "  Video Crossfade: %g s\n", d.VideoCrossfade)
	fmt.Fprintf(w, "  Video Volume:    %g%%\n", d.VideoVolume)
	fmt.Fprintf(w, "  Music Volume:    %g%%\n", d.MusicVolume)
	fmt.Fprintf(w, "  Cut Music:       %v\n", d.CutMusicAtEnd)
	fmt.Fprintf(w, "  Hardware Accel:  %v\n", d.UseHardwareAcceleration)
	fmt.Fprintf(w, "  Speed Preset:    %s\n", d.SpeedPreset)

	fmt.Fprintln(w, "\nProbing:")
	fmt.Fprintf(w, "  Workers:      %d\n", c.Probe.Workers)
	fmt.Fprintf(w, "  Timeout:      %s\n", formatDuration(c.Probe.Timeout))
	if c.Probe.CacheDB != "" {
		fmt.Fprintf(w, "  Cache DB:     %s\n", c.Probe.CacheDB)
	}

	fmt.Fprintln(w, "\nExecution:")
	fmt.Fprintf(w, "  Preview:       %d s\n", c.Preview.Seconds)
	fmt.Fprintf(w, "  Grace Period:  %s\n", formatDuration(c.Runner.GracePeriod))
	fmt.Fprintf(w, "  Keep Partial:  %v\n", c.Runner.KeepPartial)
	fmt.Fprintf(w, "  Dry Run:       %v\n", c.DryRun)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "none"
	}
	return d.String()
}
