// Package hwaccel selects the H.264 encoder: it probes ffmpeg once for a
// working GPU encoder and maps every backend to its encoder flags.
package hwaccel

import (
	"fmt"
	"strings"

	"github.com/Dayti-0/Video-Musique/models"
)

// Backend is a hardware encoding family.
type Backend string

const (
	BackendNone   Backend = "none"
	BackendNVIDIA Backend = "nvidia"
	BackendAMD    Backend = "amd"
	BackendIntel  Backend = "intel"
	BackendVAAPI  Backend = "vaapi"
)

// VAAPIDevice is the render node used for VAAPI encoding.
const VAAPIDevice = "/dev/dri/renderD128"

// SoftwareCRF is the constant rate factor of the libx264 fallback.
const SoftwareCRF = "20"

// detectionOrder is the priority in which backends are probed.
var detectionOrder = []Backend{BackendNVIDIA, BackendIntel, BackendAMD, BackendVAAPI}

// ParseBackend parses a backend name; the empty string means none.
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	if b == "" {
		return BackendNone, nil
	}
	if _, ok := profiles[b]; ok || b == BackendNone {
		return b, nil
	}
	return "", fmt.Errorf("unknown hardware backend %q", s)
}

// IsHardware reports whether b is a GPU backend.
func (b Backend) IsHardware() bool {
	return b != BackendNone && b != ""
}

// Profile describes how to drive one backend's encoder.
type Profile struct {
	Backend Backend
	Encoder string

	// PresetFlag is "-preset" or "-quality"; empty when the encoder has none.
	PresetFlag string
	Presets    map[models.SpeedPreset]string

	RateControl []string // quality flags placed after the preset
	DecodeFlags []string // placed before the inputs
	UploadChain string   // trailing filter chain needed to feed the encoder
}

var profiles = map[Backend]Profile{
	BackendNVIDIA: {
		Backend:    BackendNVIDIA,
		Encoder:    "h264_nvenc",
		PresetFlag: "-preset",
		Presets: map[models.SpeedPreset]string{
			models.PresetFastest:  "p1",
			models.PresetFast:     "p4",
			models.PresetBalanced: "p5",
			models.PresetQuality:  "p7",
		},
		RateControl: []string{"-rc", "vbr", "-cq", "20", "-b:v", "0"},
		DecodeFlags: []string{"-hwaccel", "cuda"},
	},
	BackendAMD: {
		Backend:    BackendAMD,
		Encoder:    "h264_amf",
		PresetFlag: "-quality",
		Presets: map[models.SpeedPreset]string{
			models.PresetFastest:  "speed",
			models.PresetFast:     "balanced",
			models.PresetBalanced: "balanced",
			models.PresetQuality:  "quality",
		},
		RateControl: []string{"-rc", "vbr_latency", "-qp_p", "20", "-qp_i", "20"},
	},
	BackendIntel: {
		Backend:    BackendIntel,
		Encoder:    "h264_qsv",
		PresetFlag: "-preset",
		Presets: map[models.SpeedPreset]string{
			models.PresetFastest:  "veryfast",
			models.PresetFast:     "fast",
			models.PresetBalanced: "medium",
			models.PresetQuality:  "veryslow",
		},
		RateControl: []string{"-global_quality", "20", "-look_ahead", "1"},
		DecodeFlags: []string{"-hwaccel", "qsv"},
	},
	BackendVAAPI: {
		Backend:     BackendVAAPI,
		Encoder:     "h264_vaapi",
		RateControl: []string{"-qp", "20"},
		DecodeFlags: []string{"-vaapi_device", VAAPIDevice},
		UploadChain: "format=nv12,hwupload",
	},
}

var softwarePresets = map[models.SpeedPreset]string{
	models.PresetFastest:  "ultrafast",
	models.PresetFast:     "veryfast",
	models.PresetBalanced: "medium",
	models.PresetQuality:  "slow",
}

// ProfileFor returns the profile of a GPU backend.
func ProfileFor(b Backend) (Profile, bool) {
	p, ok := profiles[b]
	return p, ok
}

// EncoderName returns the encoder used for b, libx264 for none.
func EncoderName(b Backend) string {
	if p, ok := profiles[b]; ok {
		return p.Encoder
	}
	return "libx264"
}

// SoftwarePreset returns the libx264 preset for a speed preset.
func SoftwarePreset(preset models.SpeedPreset) string {
	if v, ok := softwarePresets[preset]; ok {
		return v
	}
	return softwarePresets[models.PresetBalanced]
}

// EncodeArgs returns -c:v and the quality flags for the preset.
func (p Profile) EncodeArgs(preset models.SpeedPreset) []string {
	args := []string{"-c:v", p.Encoder}
	if p.PresetFlag != "" {
		value, ok := p.Presets[preset]
		if !ok {
			value = p.Presets[models.PresetBalanced]
		}
		args = append(args, p.PresetFlag, value)
	}
	return append(args, p.RateControl...)
}

// SoftwareEncodeArgs returns the libx264 arguments for the preset.
func SoftwareEncodeArgs(preset models.SpeedPreset) []string {
	return []string{"-c:v", "libx264", "-preset", SoftwarePreset(preset), "-crf", SoftwareCRF}
}
