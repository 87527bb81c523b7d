package hwaccel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Dayti-0/Video-Musique/command"
	"github.com/Dayti-0/Video-Musique/internal/logging"
)

// ErrEncoderUnavailable is logged when no GPU encoder can be used.
var ErrEncoderUnavailable = errors.New("hwaccel: no usable hardware encoder")

// Summary describes the detected encoder for display.
type Summary struct {
	Available bool    `json:"available"`
	Backend   Backend `json:"backend"`
	Encoder   string  `json:"encoder"`
}

// Detector probes ffmpeg for a working hardware encoder. A completed probe
// is memoised for the life of the Detector; a probe cut short by its
// context is not, and the next call probes again.
type Detector struct {
	binary      string
	runner      command.CommandRunner
	testTimeout time.Duration
	logger      hclog.Logger

	mu      sync.Mutex
	done    bool
	backend Backend
}

// NewDetector creates a Detector. An empty binary means "ffmpeg" from PATH.
func NewDetector(binary string, runner command.CommandRunner, logger hclog.Logger) *Detector {
	if binary == "" {
		binary = "ffmpeg"
	}
	if runner == nil {
		runner = command.DefaultRunner{}
	}
	return &Detector{
		binary:      binary,
		runner:      runner,
		testTimeout: 15 * time.Second,
		logger:      logging.OrNull(logger).Named("hwaccel"),
		backend:     BackendNone,
	}
}

// Detect returns the first backend, in order nvidia, intel, amd, vaapi,
// whose encoder ffmpeg lists and which completes a short test encode.
// Failures are not errors: they yield BackendNone.
func (d *Detector) Detect(ctx context.Context) Backend {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done {
		return d.backend
	}
	b := d.detect(ctx)
	if ctx.Err() != nil {
		d.logger.Debug("detection interrupted, result not memoised", "error", ctx.Err())
		return b
	}
	d.backend = b
	d.done = true
	return b
}

// Summary reports the detected backend and the encoder it maps to.
func (d *Detector) Summary(ctx context.Context) Summary {
	b := d.Detect(ctx)
	return Summary{
		Available: b.IsHardware(),
		Backend:   b,
		Encoder:   EncoderName(b),
	}
}

func (d *Detector) detect(ctx context.Context) Backend {
	start := time.Now()
	output, err := d.runner.Run(ctx, d.binary, "-hide_banner", "-encoders")
	if err != nil {
		d.logger.Warn("cannot list ffmpeg encoders, using software encoding", "error", err)
		return BackendNone
	}
	listing := string(output)

	for _, b := range detectionOrder {
		p := profiles[b]
		if !strings.Contains(listing, p.Encoder) {
			continue
		}
		if err := d.testEncode(ctx, p); err != nil {
			d.logger.Debug("encoder listed but not usable", "backend", b, "encoder", p.Encoder, "error", err)
			continue
		}
		d.logger.Info("hardware encoder selected", "backend", b, "encoder", p.Encoder, "elapsed", time.Since(start))
		return b
	}

	d.logger.Info("using software encoding", "reason", ErrEncoderUnavailable)
	return BackendNone
}

// testEncode encodes a tenth of a second of black frames to the null muxer.
func (d *Detector) testEncode(ctx context.Context, p Profile) error {
	ctx, cancel := context.WithTimeout(ctx, d.testTimeout)
	defer cancel()

	_, err := d.runner.Run(ctx, d.binary, TestEncodeArgs(p)...)
	return err
}

// TestEncodeArgs returns the arguments of the live encoder test for p.
func TestEncodeArgs(p Profile) []string {
	args := []string{"-hide_banner", "-f", "lavfi", "-i", "color=black:s=256x256:d=0.1"}
	if p.Backend == BackendVAAPI {
		args = append(args, "-vaapi_device", VAAPIDevice, "-vf", p.UploadChain)
	}
	return append(args, "-c:v", p.Encoder, "-f", "null", "-")
}
