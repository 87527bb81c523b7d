package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Dayti-0/Video-Musique/models"
)

// projectFile is the YAML layout of a project manifest:
//
//	videos:
//	  - path: intro.mp4
//	music:
//	  - path: song.mp3
//	    volume: 0.8
//	settings:
//	  audio_crossfade: 8
type projectFile struct {
	Videos   []models.VideoClip     `yaml:"videos"`
	Music    []trackEntry           `yaml:"music"`
	Settings models.ProjectSettings `yaml:"settings"`
}

// trackEntry distinguishes an omitted volume (100%) from an explicit 0.
type trackEntry struct {
	Path     string   `yaml:"path"`
	Name     string   `yaml:"name,omitempty"`
	Duration float64  `yaml:"duration,omitempty"`
	Volume   *float64 `yaml:"volume,omitempty"`
	Mute     bool     `yaml:"mute,omitempty"`
	Solo     bool     `yaml:"solo,omitempty"`
}

// LoadProject reads a project manifest. Settings missing from the file keep
// the values of defaults; relative media paths are resolved against the
// manifest's directory.
func LoadProject(path string, defaults models.ProjectSettings) (*models.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	pf := projectFile{Settings: defaults}
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse project file: %w", err)
	}

	base := filepath.Dir(path)
	p := models.NewProject()
	p.Settings = pf.Settings

	for _, v := range pf.Videos {
		clip := models.NewVideoClip(resolvePath(base, v.Path))
		if v.Name != "" {
			clip.Name = v.Name
		}
		clip.Duration = v.Duration
		p.AddVideo(clip)
	}
	for _, m := range pf.Music {
		track := models.NewAudioTrack(resolvePath(base, m.Path))
		if m.Name != "" {
			track.Name = m.Name
		}
		if m.Volume != nil {
			track.Volume = *m.Volume
		}
		track.Duration = m.Duration
		track.Mute = m.Mute
		track.Solo = m.Solo
		p.AddAudio(track)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// SaveProject writes p as a manifest.
func SaveProject(p *models.Project, path string) error {
	pf := projectFile{Videos: p.Videos, Settings: p.Settings}
	for _, t := range p.AudioTracks {
		volume := t.Volume
		pf.Music = append(pf.Music, trackEntry{
			Path:     t.Path,
			Name:     t.Name,
			Duration: t.Duration,
			Volume:   &volume,
			Mute:     t.Mute,
			Solo:     t.Solo,
		})
	}

	data, err := yaml.Marshal(&pf)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
