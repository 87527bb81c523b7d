package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/Dayti-0/Video-Musique/command"
	"github.com/Dayti-0/Video-Musique/internal/logging"
	"github.com/Dayti-0/Video-Musique/models"
)

const (
	// DefaultGracePeriod is how long a terminated process may take to exit
	// before it is killed.
	DefaultGracePeriod = 3 * time.Second

	stderrTailBytes = 8 << 10
	progressBuffer  = 16
)

// Options configures a Runner.
type Options struct {
	GracePeriod      time.Duration
	MinProgressDelta float64

	// KeepPartial keeps the output of a failed or cancelled export.
	// Temporary outputs are always removed.
	KeepPartial bool

	Logger hclog.Logger
}

// Runner executes invocations built by the command builders.
type Runner struct {
	grace       time.Duration
	minDelta    float64
	keepPartial bool
	logger      hclog.Logger
}

// NewRunner creates a runner, filling unset options with defaults.
func NewRunner(opts Options) *Runner {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.MinProgressDelta <= 0 {
		opts.MinProgressDelta = DefaultMinProgressDelta
	}
	return &Runner{
		grace:       opts.GracePeriod,
		minDelta:    opts.MinProgressDelta,
		keepPartial: opts.KeepPartial,
		logger:      logging.OrNull(opts.Logger).Named("runner"),
	}
}

// Handle is a running invocation.
type Handle struct {
	inv    *command.Invocation
	cmd    *exec.Cmd
	runID  string
	start  time.Time
	logger hclog.Logger

	grace       time.Duration
	removeOnErr bool

	stderr   *tailBuffer
	progress chan models.Progress

	cancelOnce sync.Once
	cancelCh   chan struct{}
	done       chan struct{}
	result     models.RunResult
}

// Start launches inv. The returned handle reports progress until the
// process exits; cancelling ctx is equivalent to calling Cancel.
func (r *Runner) Start(ctx context.Context, inv *command.Invocation) (*Handle, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: nil invocation", ErrLaunchFailed)
	}
	if strings.TrimSpace(inv.OutputPath) == "" {
		return nil, fmt.Errorf("%w: invocation has no output path", ErrLaunchFailed)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	binary := inv.Binary
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.Command(binary, inv.Args...)
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	stderr := &tailBuffer{max: stderrTailBytes}
	cmd.Stderr = stderr

	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID, "category", inv.Category())

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrToolNotFound, binary)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrLaunchFailed, binary, err)
	}
	logger.Debug("process started", "pid", cmd.Process.Pid, "encoder", inv.Encoder, "backend", inv.Backend)

	h := &Handle{
		inv:         inv,
		cmd:         cmd,
		runID:       runID,
		start:       time.Now(),
		logger:      logger,
		grace:       r.grace,
		removeOnErr: inv.IsTemporary() || !r.keepPartial,
		stderr:      stderr,
		progress:    make(chan models.Progress, progressBuffer),
		cancelCh:    make(chan struct{}),
		done:        make(chan struct{}),
	}

	parser := NewProgressParser(inv.Timeline, r.minDelta)
	parsed := make(chan struct{})
	go func() {
		defer close(parsed)
		if err := parser.Stream(stdout, h.emit); err != nil {
			logger.Debug("progress stream ended", "error", err)
		}
	}()

	exited := make(chan error, 1)
	go func() {
		<-parsed
		exited <- cmd.Wait()
	}()

	go h.supervise(ctx, exited)
	return h, nil
}

// Run starts inv and blocks until it finishes, forwarding progress to
// onProgress. The returned error is only set when the process could not be
// launched; run failures are reported in the result.
func (r *Runner) Run(ctx context.Context, inv *command.Invocation, onProgress models.ProgressCallback) (models.RunResult, error) {
	h, err := r.Start(ctx, inv)
	if err != nil {
		return models.RunResult{}, err
	}
	for p := range h.Progress() {
		if onProgress != nil {
			onProgress(p)
		}
	}
	return h.Wait(), nil
}

// Progress returns the progress reports. The channel is closed when the
// process has exited. Stale reports are dropped if the reader lags.
func (h *Handle) Progress() <-chan models.Progress {
	return h.progress
}

// Cancel asks the process to stop. It is safe to call more than once.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(func() { close(h.cancelCh) })
}

// Done is closed once the result is available.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the process has exited and returns its outcome.
func (h *Handle) Wait() models.RunResult {
	<-h.done
	return h.result
}

// RunID identifies the run in logs.
func (h *Handle) RunID() string {
	return h.runID
}

// emit delivers p, replacing the oldest queued report when the buffer is full.
func (h *Handle) emit(p models.Progress) {
	for {
		select {
		case h.progress <- p:
			return
		default:
		}
		select {
		case <-h.progress:
		default:
		}
	}
}

func (h *Handle) supervise(ctx context.Context, exited <-chan error) {
	var (
		waitErr   error
		cancelled bool
	)

	select {
	case waitErr = <-exited:
	case <-ctx.Done():
		cancelled = true
	case <-h.cancelCh:
		cancelled = true
	}

	if cancelled {
		select {
		case waitErr = <-exited:
			// Exited on its own before the request was handled.
			cancelled = false
		default:
			h.logger.Info("cancelling run")
			waitErr = h.terminate(exited)
		}
	}

	h.result = h.finish(waitErr, cancelled)
	close(h.progress)
	close(h.done)
}

// terminate sends a graceful stop and kills the process once the grace
// period has elapsed.
func (h *Handle) terminate(exited <-chan error) error {
	pid := h.cmd.Process.Pid
	proc, err := process.NewProcess(int32(pid))
	if err == nil {
		err = proc.Terminate()
	}
	if err != nil {
		h.logger.Debug("graceful terminate failed, killing", "pid", pid, "error", err)
		_ = h.cmd.Process.Kill()
		return <-exited
	}

	timer := time.NewTimer(h.grace)
	defer timer.Stop()

	select {
	case err := <-exited:
		return err
	case <-timer.C:
		h.logger.Warn("process did not exit after terminate, killing", "pid", pid, "grace", h.grace)
		if err := proc.Kill(); err != nil {
			_ = h.cmd.Process.Kill()
		}
		return <-exited
	}
}

func (h *Handle) finish(waitErr error, cancelled bool) models.RunResult {
	elapsed := time.Since(h.start)

	if cancelled {
		h.removeOutput()
		h.logger.Info("run cancelled", "elapsed", elapsed)
		return *models.NewRunCancelled(elapsed)
	}

	if waitErr == nil {
		r, err := models.NewRunSuccess(h.inv.OutputPath, elapsed)
		if err != nil {
			failed, _ := models.NewRunFailure(err, elapsed)
			return *failed
		}
		h.logger.Info("run completed", "elapsed", elapsed)
		return *r
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	perr := &ProcessError{
		Category: h.inv.Category(),
		ExitCode: exitCode,
		Output:   h.stderr.String(),
	}
	h.logger.Error("ffmpeg failed", "exit_code", exitCode, "error", lastLine(perr.Output))
	h.removeOutput()

	failed, _ := models.NewRunFailure(perr, elapsed)
	return *failed
}

func (h *Handle) removeOutput() {
	if !h.removeOnErr {
		return
	}
	if err := os.Remove(h.inv.OutputPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.logger.Warn("failed to remove partial output", "path", h.inv.OutputPath, "error", err)
	}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
