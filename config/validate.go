package config

import (
	"fmt"
	"strings"

	"github.com/Dayti-0/Video-Musique/hwaccel"
	"github.com/Dayti-0/Video-Musique/internal/logging"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.FFmpegPath) == "" {
		errors = append(errors, "ffmpeg path is required")
	}
	if strings.TrimSpace(c.FFprobePath) == "" {
		errors = append(errors, "ffprobe path is required")
	}

	if c.Hardware != HardwareAuto {
		if _, err := hwaccel.ParseBackend(c.Hardware); err != nil {
			errors = append(errors, fmt.Sprintf("invalid hardware '%s', must be auto, none, nvidia, amd, intel or vaapi", c.Hardware))
		}
	}

	if !logging.ValidLevel(c.Log.Level) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.Log.Level))
	}

	// Validate project defaults
	if err := c.Defaults.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("defaults: %v", err))
	}

	if err := c.Probe.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("probe config: %v", err))
	}
	if err := c.Preview.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("preview config: %v", err))
	}
	if err := c.Runner.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("runner config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Validate checks if probe configuration is valid
func (pc *ProbeConfig) Validate() error {
	var errors []string

	// 0 is valid, means the resolver default
	if pc.Workers < 0 {
		errors = append(errors, "workers cannot be negative (use 0 for default)")
	}
	if pc.Timeout < 0 {
		errors = append(errors, "timeout cannot be negative (use 0 for none)")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// Validate checks if preview configuration is valid
func (pc *PreviewConfig) Validate() error {
	if pc.Seconds <= 0 {
		return fmt.Errorf("seconds must be positive")
	}
	return nil
}

// Validate checks if runner configuration is valid
func (rc *RunnerConfig) Validate() error {
	var errors []string

	if rc.GracePeriod < 0 {
		errors = append(errors, "grace period cannot be negative")
	}
	if rc.MinProgressDelta < 0 || rc.MinProgressDelta > 100 {
		errors = append(errors, "min progress delta must be between 0 and 100")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}
