// Package preview renders short previews of a project to temporary files.
//
// At most one preview runs at a time: starting a new one stops the previous
// run and deletes its file.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/Dayti-0/Video-Musique/command"
	"github.com/Dayti-0/Video-Musique/command/mixing"
	"github.com/Dayti-0/Video-Musique/ffmpeg"
	"github.com/Dayti-0/Video-Musique/hwaccel"
	"github.com/Dayti-0/Video-Musique/internal/logging"
	"github.com/Dayti-0/Video-Musique/models"
)

const (
	// DefaultSeconds is the preview length when none is given.
	DefaultSeconds = 60

	FilePrefix = "vmpreview-"
	FileExt    = ".mkv"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("preview: controller closed")

// Job is a running preview render.
type Job interface {
	Progress() <-chan models.Progress
	Cancel()
	Wait() models.RunResult
}

// Runner starts invocations.
type Runner interface {
	Start(ctx context.Context, inv *command.Invocation) (Job, error)
}

// FromFFmpeg adapts an ffmpeg runner.
func FromFFmpeg(r *ffmpeg.Runner) Runner {
	return ffmpegRunner{r}
}

type ffmpegRunner struct{ r *ffmpeg.Runner }

func (f ffmpegRunner) Start(ctx context.Context, inv *command.Invocation) (Job, error) {
	h, err := f.r.Start(ctx, inv)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Options configures a Controller.
type Options struct {
	Runner     Runner
	TempDir    string // os.TempDir() when empty
	FFmpegPath string
	Backend    hwaccel.Backend
	Logger     hclog.Logger
}

// Controller serializes preview renders and owns their temporary files.
type Controller struct {
	runner  Runner
	tempDir string
	binary  string
	backend hwaccel.Backend
	logger  hclog.Logger

	mu     sync.Mutex
	job    Job
	path   string
	closed bool
}

// NewController creates a controller.
func NewController(opts Options) (*Controller, error) {
	if opts.Runner == nil {
		return nil, fmt.Errorf("preview: runner is required")
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.Backend == "" {
		opts.Backend = hwaccel.BackendNone
	}
	return &Controller{
		runner:  opts.Runner,
		tempDir: opts.TempDir,
		binary:  opts.FFmpegPath,
		backend: opts.Backend,
		logger:  logging.OrNull(opts.Logger).Named("preview"),
	}, nil
}

// Start stops the current preview, deletes its file and starts rendering
// the first seconds of project to a new temporary file.
func (c *Controller) Start(ctx context.Context, project *models.Project, seconds int) (Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	c.stopLocked()

	if seconds <= 0 {
		seconds = DefaultSeconds
	}
	path := filepath.Join(c.tempDir, FilePrefix+uuid.NewString()+FileExt)

	inv, err := mixing.NewMixingBuilder(project, path).
		SetPreview(seconds).
		SetBackend(c.backend).
		SetBinary(c.binary).
		SetTemporary(true).
		SetLogger(c.logger).
		Build()
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}

	job, err := c.runner.Start(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	c.logger.Debug("preview started", "path", path, "seconds", seconds)

	c.job = job
	c.path = path
	return job, nil
}

// Stop cancels the running preview, if any, and deletes its file.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Close stops the controller for good. It is safe to call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.closed = true
	return nil
}

// Path returns the file of the current preview, or "" when there is none.
func (c *Controller) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

func (c *Controller) stopLocked() {
	if c.job != nil {
		c.job.Cancel()
		c.job.Wait()
		c.job = nil
	}
	if c.path != "" {
		removeFile(c.path, c.logger)
		c.path = ""
	}
}

// SweepStale deletes preview files left in dir by earlier sessions and
// returns the removed paths.
func SweepStale(dir string, logger hclog.Logger) ([]string, error) {
	logger = logging.OrNull(logger)
	if dir == "" {
		dir = os.TempDir()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("preview: failed to list %s: %w", dir, err)
	}

	var removed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, FileExt) {
			continue
		}
		path := filepath.Join(dir, name)
		if removeFile(path, logger) {
			removed = append(removed, path)
		}
	}
	if len(removed) > 0 {
		logger.Info("removed stale preview files", "count", len(removed), "dir", dir)
	}
	return removed, nil
}

func removeFile(path string, logger hclog.Logger) bool {
	err := os.Remove(path)
	if err == nil {
		return true
	}
	if !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to remove preview file", "path", path, "error", err)
	}
	return false
}
