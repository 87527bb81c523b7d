// Package mixing assembles the ffmpeg command that renders a project: every
// clip joined with crossfades, the clip audio mixed with the music playlist,
// encoded with the selected hardware or software encoder.
package mixing

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/Dayti-0/Video-Musique/command"
	"github.com/Dayti-0/Video-Musique/command/filter"
	"github.com/Dayti-0/Video-Musique/hwaccel"
	"github.com/Dayti-0/Video-Musique/internal/logging"
	"github.com/Dayti-0/Video-Musique/models"
)

// Pad names of the mixing graph.
const (
	padClipAudio filter.Label = "va"
	padMusic     filter.Label = "mus"
	padMix       filter.Label = "aout"
	padUpload    filter.Label = "vout"
)

// Audio encoding of non-WebM outputs.
const (
	AudioCodec   = "aac"
	AudioBitrate = "192k"
)

var _ command.Builder = (*MixingBuilder)(nil)

// MixingBuilder constructs the render command of a project.
//
// The builder works on a snapshot of the project taken by NewMixingBuilder;
// later edits to the original project do not affect it.
type MixingBuilder struct {
	project    *models.Project
	outputPath string

	previewSeconds int
	backend        hwaccel.Backend
	binary         string
	temporary      bool
	logger         hclog.Logger
}

// NewMixingBuilder creates a builder rendering project to outputPath.
func NewMixingBuilder(project *models.Project, outputPath string) *MixingBuilder {
	snapshot := models.NewProject()
	if project != nil {
		snapshot = project.Clone()
	}
	return &MixingBuilder{
		project:    snapshot,
		outputPath: outputPath,
		backend:    hwaccel.BackendNone,
		binary:     "ffmpeg",
		logger:     hclog.NewNullLogger(),
	}
}

// SetPreview limits the output to the first seconds and switches to the
// fastest preset. Zero disables preview mode.
func (m *MixingBuilder) SetPreview(seconds int) *MixingBuilder {
	if seconds < 0 {
		seconds = 0
	}
	m.previewSeconds = seconds
	return m
}

// SetBackend sets the detected hardware backend. It is only used when the
// project enables hardware acceleration.
func (m *MixingBuilder) SetBackend(backend hwaccel.Backend) *MixingBuilder {
	m.backend = backend
	return m
}

// SetBinary overrides the ffmpeg executable.
func (m *MixingBuilder) SetBinary(path string) *MixingBuilder {
	if path != "" {
		m.binary = path
	}
	return m
}

// SetTemporary marks the output for removal when the run does not succeed.
func (m *MixingBuilder) SetTemporary(temporary bool) *MixingBuilder {
	m.temporary = temporary
	return m
}

// SetLogger sets the logger used for crossfade warnings.
func (m *MixingBuilder) SetLogger(logger hclog.Logger) *MixingBuilder {
	m.logger = logging.OrNull(logger).Named("mixing")
	return m
}

// Build assembles the invocation.
func (m *MixingBuilder) Build() (*command.Invocation, error) {
	p := m.project
	s := p.Settings

	if len(p.Videos) == 0 {
		return nil, fmt.Errorf("mixing: %w", filter.ErrEmptyInput)
	}
	if strings.TrimSpace(m.outputPath) == "" {
		return nil, fmt.Errorf("mixing: output path cannot be empty")
	}

	preview := m.previewSeconds > 0
	preset := s.SpeedPreset
	if preview {
		preset = models.PresetFastest
	}
	webm := strings.EqualFold(filepath.Ext(m.outputPath), ".webm")
	mustReencode := len(p.Videos) > 1 || s.VideoCrossfade > 0

	backend := hwaccel.BackendNone
	if s.UseHardwareAcceleration && mustReencode && !webm {
		backend = m.backend
	}
	profile, hardware := hwaccel.ProfileFor(backend)
	if !hardware {
		backend = hwaccel.BackendNone
	}

	var active []models.AudioTrack
	if s.IncludeMusic {
		active = p.ActiveTracks()
	}
	m.warnCrossfades(p.Videos, active, s)

	timeline := p.VideoDuration()

	args := []string{"-y"}
	if hardware {
		args = append(args, profile.DecodeFlags...)
	}
	for _, v := range p.Videos {
		args = append(args, "-i", v.Path)
	}
	for _, t := range active {
		args = append(args, "-i", t.Path)
	}

	graph, videoMap, audioMap, err := m.buildGraph(active, mustReencode, profile, hardware, timeline)
	if err != nil {
		return nil, err
	}
	if !graph.Empty() {
		args = append(args, "-filter_complex", graph.String())
	}

	args = append(args, "-map", videoMap)
	if audioMap != "" {
		args = append(args, "-map", audioMap)
	} else {
		args = append(args, "-an")
	}

	var encoder string
	switch {
	case webm:
		encoder = "libvpx-vp9"
		args = append(args, "-c:v", encoder, "-b:v", "0", "-crf", "30")
	case mustReencode && hardware:
		encoder = profile.Encoder
		args = append(args, profile.EncodeArgs(preset)...)
	case mustReencode:
		encoder = "libx264"
		args = append(args, hwaccel.SoftwareEncodeArgs(preset)...)
	default:
		encoder = "copy"
		args = append(args, "-c:v", "copy")
	}

	if audioMap != "" {
		if webm {
			args = append(args, "-c:a", "libvorbis")
		} else {
			args = append(args, "-c:a", AudioCodec, "-b:a", AudioBitrate)
		}
	}

	if preview {
		args = append(args, "-t", strconv.Itoa(m.previewSeconds))
		if t := float64(m.previewSeconds); timeline <= 0 || t < timeline {
			timeline = t
		}
	}

	args = append(args, "-progress", "pipe:1", "-nostats", m.outputPath)

	kind := command.KindExport
	if preview {
		kind = command.KindPreview
	}

	return &command.Invocation{
		Kind:       kind,
		Binary:     m.binary,
		Args:       args,
		OutputPath: m.outputPath,
		Timeline:   timeline,
		Encoder:    encoder,
		Backend:    string(backend),
		Temporary:  m.temporary,
	}, nil
}

// buildGraph returns the filter graph and the -map arguments for video and
// audio. audioMap is empty when the output has no audio.
func (m *MixingBuilder) buildGraph(active []models.AudioTrack, mustReencode bool, profile hwaccel.Profile, hardware bool, timeline float64) (filter.Graph, string, string, error) {
	p := m.project
	s := p.Settings

	var g filter.Graph
	var mapped []filter.Label

	clips, err := filter.VideoChain(p.Videos, s.VideoCrossfade)
	if err != nil {
		return g, "", "", fmt.Errorf("mixing: %w", err)
	}

	// A stream-copied video cannot go through the graph.
	videoMap := "0:v:0"
	if mustReencode {
		g.Append(clips.Video)
		out := clips.VideoOut
		if hardware && profile.UploadChain != "" {
			g.Add(filter.Stage{
				Inputs:  []filter.Label{out},
				Filters: uploadFilters(profile.UploadChain),
				Outputs: []filter.Label{padUpload},
			})
			out = padUpload
		}
		videoMap = out.String()
		mapped = append(mapped, out)
	}

	var clipAudio, music filter.Label
	if s.IncludeVideoAudio {
		g.Append(clips.Audio)
		g.Add(filter.Stage{
			Inputs:  []filter.Label{clips.AudioOut},
			Filters: []filter.Filter{filter.Volume(s.VideoVolume / 100)},
			Outputs: []filter.Label{padClipAudio},
		})
		clipAudio = padClipAudio
	}

	if len(active) > 0 {
		chain, err := filter.AudioChain(active, s.AudioCrossfade, len(p.Videos))
		if err != nil {
			return g, "", "", fmt.Errorf("mixing: %w", err)
		}
		g.Append(chain.Graph)
		music = chain.Output

		var post []filter.Filter
		if s.MusicVolume != 100 {
			post = append(post, filter.Volume(s.MusicVolume/100))
		}
		if s.CutMusicAtEnd {
			post = append(post, filter.Atrim(timeline))
		}
		if len(post) > 0 {
			g.Add(filter.Stage{Inputs: []filter.Label{music}, Filters: post, Outputs: []filter.Label{padMusic}})
			music = padMusic
		}
	}

	var audio filter.Label
	switch {
	case clipAudio != "" && music != "":
		g.Add(filter.Stage{
			Inputs:  []filter.Label{clipAudio, music},
			Filters: []filter.Filter{filter.Amix(2)},
			Outputs: []filter.Label{padMix},
		})
		audio = padMix
	case clipAudio != "":
		audio = clipAudio
	case music != "":
		audio = music
	}

	audioMap := ""
	if audio != "" {
		audioMap = audio.String()
		mapped = append(mapped, audio)
	}

	if err := g.Validate(); err != nil {
		return g, "", "", fmt.Errorf("mixing: %w", err)
	}
	if dangling := g.Dangling(); !sameLabels(dangling, mapped) {
		return g, "", "", fmt.Errorf("mixing: %w: unmapped pads %v", filter.ErrInvalidGraph, dangling)
	}
	return g, videoMap, audioMap, nil
}

func uploadFilters(chain string) []filter.Filter {
	var out []filter.Filter
	for _, part := range strings.Split(chain, ",") {
		name, arg, found := strings.Cut(part, "=")
		if found {
			out = append(out, filter.New(name, filter.Arg{Value: arg}))
		} else {
			out = append(out, filter.New(name))
		}
	}
	return out
}

func sameLabels(a, b []filter.Label) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[filter.Label]int, len(a))
	for _, l := range a {
		seen[l]++
	}
	for _, l := range b {
		if seen[l] == 0 {
			return false
		}
		seen[l]--
	}
	return true
}

// warnCrossfades logs transitions longer than the material they join.
// Such crossfades are passed to ffmpeg unchanged.
func (m *MixingBuilder) warnCrossfades(clips []models.VideoClip, tracks []models.AudioTrack, s models.ProjectSettings) {
	for i, c := range clips {
		if c.Duration <= 0 {
			m.logger.Warn("clip duration unknown, crossfade offsets will be wrong", "clip", c.DisplayName(), "index", i)
		}
	}
	if d := s.VideoCrossfade; d > 0 {
		for j := 1; j < len(clips); j++ {
			if d >= clips[j-1].Duration || d >= clips[j].Duration {
				m.logger.Warn("video crossfade is not shorter than adjacent clip",
					"crossfade", d, "from", clips[j-1].DisplayName(), "to", clips[j].DisplayName())
			}
		}
	}
	d := float64(s.AudioCrossfade)
	for j := 1; j < len(tracks); j++ {
		a, b := tracks[j-1], tracks[j]
		if (a.Duration > 0 && d >= a.Duration) || (b.Duration > 0 && d >= b.Duration) {
			m.logger.Warn("audio crossfade is not shorter than adjacent track",
				"crossfade", d, "from", a.DisplayName(), "to", b.DisplayName())
		}
	}
}

// DryRun returns the command that would be executed without running it.
func (m *MixingBuilder) DryRun() (string, error) {
	inv, err := m.Build()
	if err != nil {
		return "", err
	}
	return inv.DryRun(), nil
}

// GetOutputPath returns the output file path.
func (m *MixingBuilder) GetOutputPath() string {
	return m.outputPath
}
