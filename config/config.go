package config

import (
	"time"

	"github.com/Dayti-0/Video-Musique/models"
)

// Config holds all engine configuration options
type Config struct {
	// External tools
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	// Hardware backend: "auto" probes the GPU encoders, "none" forces libx264
	Hardware string `yaml:"hardware"`

	Log LogConfig `yaml:"log"`

	// Directory of the last export, remembered between sessions
	LastDirectory string `yaml:"last_directory,omitempty"`

	// Initial settings of every new project
	Defaults models.ProjectSettings `yaml:"defaults"`

	Probe   ProbeConfig   `yaml:"probe"`
	Preview PreviewConfig `yaml:"preview"`
	Runner  RunnerConfig  `yaml:"runner"`

	DryRun bool `yaml:"dry_run"` // Print the command instead of running it

	// Set from the command line only
	Output string `yaml:"-"`
	Source string `yaml:"-"` // Config file that was loaded, if any
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"` // trace, debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// ProbeConfig holds duration resolution settings
type ProbeConfig struct {
	Workers int           `yaml:"workers"` // Concurrent probes, 0 = default
	Timeout time.Duration `yaml:"timeout"` // Per-strategy limit, 0 = none
	CacheDB string        `yaml:"cache_db"` // SQLite duration cache, empty = memory only
}

// PreviewConfig holds preview settings
type PreviewConfig struct {
	Seconds int    `yaml:"seconds"`
	TempDir string `yaml:"temp_dir"` // empty = system temp dir
}

// RunnerConfig holds process runner settings
type RunnerConfig struct {
	GracePeriod      time.Duration `yaml:"grace_period"`       // Terminate to kill delay
	MinProgressDelta float64       `yaml:"min_progress_delta"` // Percentage points
	KeepPartial      bool          `yaml:"keep_partial"`       // Keep failed export outputs
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Hardware:    HardwareAuto,

		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},

		Defaults: models.DefaultProjectSettings(),

		Probe: ProbeConfig{
			Workers: 4,
			Timeout: 30 * time.Second,
			CacheDB: "", // In-memory only
		},

		Preview: PreviewConfig{
			Seconds: 60,
			TempDir: "",
		},

		Runner: RunnerConfig{
			GracePeriod:      3 * time.Second,
			MinProgressDelta: 0.5,
			KeepPartial:      false,
		},

		DryRun: false,
	}
}

// HardwareAuto selects the first working GPU backend.
const HardwareAuto = "auto"

// Copy creates a deep copy of the config
func (c *Config) Copy() *Config {
	copy := *c
	return &copy
}

// ProjectSettings returns the settings a new project starts with.
func (c *Config) ProjectSettings() models.ProjectSettings {
	return c.Defaults
}

// NewProject returns an empty project using the configured defaults.
func (c *Config) NewProject() *models.Project {
	p := models.NewProject()
	p.Settings = c.ProjectSettings()
	return p
}
