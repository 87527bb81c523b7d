// Package models provides the core data structures shared by the mixing engine:
// the project description handed over by the UI, progress reports and run results.
package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxTrackVolume is the highest gain a single audio track may carry (110%).
const MaxTrackVolume = 1.1

// Settings domains.
const (
	MinAudioCrossfade = 1
	MaxAudioCrossfade = 20
	MinVideoCrossfade = 0.0
	MaxVideoCrossfade = 5.0
	MaxVolumePercent  = 110.0
)

// VideoClip is one entry of the video playlist.
//
// Duration is expressed in seconds and resolved lazily; 0 means unknown.
type VideoClip struct {
	Path     string  `yaml:"path" json:"path"`
	Name     string  `yaml:"name,omitempty" json:"name,omitempty"`
	Duration float64 `yaml:"duration,omitempty" json:"duration,omitempty"`
}

// NewVideoClip creates a clip whose display name is derived from its path.
func NewVideoClip(path string) VideoClip {
	return VideoClip{Path: path, Name: filepath.Base(path)}
}

// DisplayName returns Name, or the base name of Path when Name is empty.
func (c VideoClip) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return filepath.Base(c.Path)
}

// AudioTrack is one entry of the music playlist.
type AudioTrack struct {
	Path     string  `yaml:"path" json:"path"`
	Name     string  `yaml:"name,omitempty" json:"name,omitempty"`
	Duration float64 `yaml:"duration,omitempty" json:"duration,omitempty"`
	Volume   float64 `yaml:"volume" json:"volume"` // 1.0 = 100%
	Mute     bool    `yaml:"mute,omitempty" json:"mute,omitempty"`
	Solo     bool    `yaml:"solo,omitempty" json:"solo,omitempty"`
}

// NewAudioTrack creates a track at nominal volume whose display name is derived from its path.
func NewAudioTrack(path string) AudioTrack {
	return AudioTrack{Path: path, Name: filepath.Base(path), Volume: 1.0}
}

// DisplayName returns Name, or the base name of Path when Name is empty.
func (t AudioTrack) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return filepath.Base(t.Path)
}

// EffectiveVolume returns the playback gain: 0 when muted, otherwise the
// volume capped at MaxTrackVolume.
func (t AudioTrack) EffectiveVolume() float64 {
	if t.Mute {
		return 0
	}
	if t.Volume < 0 {
		return 0
	}
	if t.Volume > MaxTrackVolume {
		return MaxTrackVolume
	}
	return t.Volume
}

// ActiveTracks returns the tracks that should be audible.
//
// When at least one track is soloed only the soloed tracks are kept, minus
// the ones that are also muted. Otherwise every non-muted track is kept.
// Input order is preserved: it becomes the crossfade chain order.
func ActiveTracks(tracks []AudioTrack) []AudioTrack {
	hasSolo := false
	for _, t := range tracks {
		if t.Solo {
			hasSolo = true
			break
		}
	}

	active := make([]AudioTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.Mute {
			continue
		}
		if hasSolo && !t.Solo {
			continue
		}
		active = append(active, t)
	}
	return active
}

// TimelineDuration computes the length of the crossfaded video timeline:
// clips[0] + Σ max(clips[j] - crossfade, 0) for j ≥ 1.
func TimelineDuration(clips []VideoClip, crossfade float64) float64 {
	if len(clips) == 0 {
		return 0
	}
	total := clips[0].Duration
	for _, c := range clips[1:] {
		if seg := c.Duration - crossfade; seg > 0 {
			total += seg
		}
	}
	return total
}

// Project is the complete in-memory project handed to the engine.
type Project struct {
	Videos      []VideoClip     `yaml:"videos" json:"videos"`
	AudioTracks []AudioTrack    `yaml:"audio_tracks" json:"audio_tracks"`
	Settings    ProjectSettings `yaml:"settings" json:"settings"`
}

// NewProject returns an empty project with default settings.
func NewProject() *Project {
	return &Project{Settings: DefaultProjectSettings()}
}

// Clone returns a deep copy; the engine always works on a snapshot.
func (p *Project) Clone() *Project {
	c := &Project{Settings: p.Settings}
	c.Videos = append([]VideoClip(nil), p.Videos...)
	c.AudioTracks = append([]AudioTrack(nil), p.AudioTracks...)
	return c
}

// ActiveTracks applies mute/solo precedence to the project's tracks.
func (p *Project) ActiveTracks() []AudioTrack {
	return ActiveTracks(p.AudioTracks)
}

// VideoDuration returns the crossfaded length of the video timeline.
func (p *Project) VideoDuration() float64 {
	return TimelineDuration(p.Videos, p.Settings.VideoCrossfade)
}

// MusicDuration returns the summed duration of the active tracks.
func (p *Project) MusicDuration() float64 {
	total := 0.0
	for _, t := range p.ActiveTracks() {
		total += t.Duration
	}
	return total
}

// AddVideo appends clips to the playlist.
func (p *Project) AddVideo(clips ...VideoClip) {
	p.Videos = append(p.Videos, clips...)
}

// RemoveVideo removes the clip at index.
func (p *Project) RemoveVideo(index int) error {
	if index < 0 || index >= len(p.Videos) {
		return fmt.Errorf("video index %d out of range [0,%d)", index, len(p.Videos))
	}
	p.Videos = append(p.Videos[:index], p.Videos[index+1:]...)
	return nil
}

// MoveVideo moves the clip at index by delta positions and returns its new index.
func (p *Project) MoveVideo(index, delta int) (int, error) {
	return move(p.Videos, index, delta)
}

// AddAudio appends tracks to the playlist.
func (p *Project) AddAudio(tracks ...AudioTrack) {
	p.AudioTracks = append(p.AudioTracks, tracks...)
}

// RemoveAudio removes the track at index.
func (p *Project) RemoveAudio(index int) error {
	if index < 0 || index >= len(p.AudioTracks) {
		return fmt.Errorf("audio index %d out of range [0,%d)", index, len(p.AudioTracks))
	}
	p.AudioTracks = append(p.AudioTracks[:index], p.AudioTracks[index+1:]...)
	return nil
}

// MoveAudio moves the track at index by delta positions and returns its new index.
func (p *Project) MoveAudio(index, delta int) (int, error) {
	return move(p.AudioTracks, index, delta)
}

func move[T any](items []T, index, delta int) (int, error) {
	if index < 0 || index >= len(items) {
		return index, fmt.Errorf("index %d out of range [0,%d)", index, len(items))
	}
	target := index + delta
	if target < 0 || target >= len(items) {
		return index, fmt.Errorf("cannot move index %d by %d", index, delta)
	}
	item := items[index]
	if target > index {
		copy(items[index:target], items[index+1:target+1])
	} else {
		copy(items[target+1:index+1], items[target:index])
	}
	items[target] = item
	return target, nil
}

// Validate checks that the project can be rendered.
func (p *Project) Validate() error {
	var errors []string

	if len(p.Videos) == 0 {
		errors = append(errors, "at least one video clip is required")
	}
	for i, v := range p.Videos {
		if strings.TrimSpace(v.Path) == "" {
			errors = append(errors, fmt.Sprintf("video %d: path is required", i))
		}
		if v.Duration < 0 {
			errors = append(errors, fmt.Sprintf("video %d: duration cannot be negative", i))
		}
	}
	for i, t := range p.AudioTracks {
		if strings.TrimSpace(t.Path) == "" {
			errors = append(errors, fmt.Sprintf("audio %d: path is required", i))
		}
		if t.Volume < 0 || t.Volume > MaxTrackVolume {
			errors = append(errors, fmt.Sprintf("audio %d: volume must be between 0 and %.1f", i, MaxTrackVolume))
		}
	}
	if err := p.Settings.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("settings: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid project:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}
