package models

import (
	"fmt"
	"strings"
)

// SpeedPreset trades encoding speed for quality.
type SpeedPreset string

const (
	PresetFastest  SpeedPreset = "fastest"
	PresetFast     SpeedPreset = "fast"
	PresetBalanced SpeedPreset = "balanced"
	PresetQuality  SpeedPreset = "quality"
)

// SpeedPresetValues returns the valid presets, fastest first.
func SpeedPresetValues() []SpeedPreset {
	return []SpeedPreset{PresetFastest, PresetFast, PresetBalanced, PresetQuality}
}

// ParseSpeedPreset parses a preset name. "ultrafast" is accepted for fastest.
func ParseSpeedPreset(s string) (SpeedPreset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fastest", "ultrafast":
		return PresetFastest, nil
	case "fast":
		return PresetFast, nil
	case "balanced", "":
		return PresetBalanced, nil
	case "quality":
		return PresetQuality, nil
	}
	return "", fmt.Errorf("unknown speed preset %q", s)
}

// IsValid reports whether p is one of the closed set of presets.
func (p SpeedPreset) IsValid() bool {
	for _, v := range SpeedPresetValues() {
		if p == v {
			return true
		}
	}
	return false
}

// UnmarshalYAML accepts aliases when reading project manifests.
func (p *SpeedPreset) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseSpeedPreset(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ProjectSettings holds the mix and export options of a project.
type ProjectSettings struct {
	IncludeVideoAudio       bool        `yaml:"include_video_audio" json:"include_video_audio"`
	IncludeMusic            bool        `yaml:"include_music" json:"include_music"`
	AudioCrossfade          int         `yaml:"audio_crossfade" json:"audio_crossfade"` // seconds
	VideoCrossfade          float64     `yaml:"video_crossfade" json:"video_crossfade"` // seconds
	CutMusicAtEnd           bool        `yaml:"cut_music_at_end" json:"cut_music_at_end"`
	VideoVolume             float64     `yaml:"video_volume" json:"video_volume"` // percent
	MusicVolume             float64     `yaml:"music_volume" json:"music_volume"` // percent
	UseHardwareAcceleration bool        `yaml:"use_hardware_acceleration" json:"use_hardware_acceleration"`
	SpeedPreset             SpeedPreset `yaml:"speed_preset" json:"speed_preset"`
}

// DefaultProjectSettings returns the settings of a new project.
func DefaultProjectSettings() ProjectSettings {
	return ProjectSettings{
		IncludeVideoAudio:       true,
		IncludeMusic:            true,
		AudioCrossfade:          10,
		VideoCrossfade:          1.0,
		CutMusicAtEnd:           false,
		VideoVolume:             100,
		MusicVolume:             70,
		UseHardwareAcceleration: true,
		SpeedPreset:             PresetBalanced,
	}
}

// Validate checks every field against its documented domain.
func (s ProjectSettings) Validate() error {
	var errors []string

	if s.AudioCrossfade < MinAudioCrossfade || s.AudioCrossfade > MaxAudioCrossfade {
		errors = append(errors, fmt.Sprintf("audio crossfade must be between %d and %d seconds", MinAudioCrossfade, MaxAudioCrossfade))
	}
	if s.VideoCrossfade < MinVideoCrossfade || s.VideoCrossfade > MaxVideoCrossfade {
		errors = append(errors, fmt.Sprintf("video crossfade must be between %.0f and %.0f seconds", MinVideoCrossfade, MaxVideoCrossfade))
	}
	if s.VideoVolume < 0 || s.VideoVolume > MaxVolumePercent {
		errors = append(errors, fmt.Sprintf("video volume must be between 0 and %.0f%%", MaxVolumePercent))
	}
	if s.MusicVolume < 0 || s.MusicVolume > MaxVolumePercent {
		errors = append(errors, fmt.Sprintf("music volume must be between 0 and %.0f%%", MaxVolumePercent))
	}
	if !s.SpeedPreset.IsValid() {
		errors = append(errors, fmt.Sprintf("invalid speed preset %q", s.SpeedPreset))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}
	return nil
}
