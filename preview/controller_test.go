package preview

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dayti-0/Video-Musique/command"
	"github.com/Dayti-0/Video-Musique/command/filter"
	"github.com/Dayti-0/Video-Musique/ffmpeg"
	"github.com/Dayti-0/Video-Musique/models"
)

type fakeJob struct {
	mu        sync.Mutex
	cancelled bool
	progress  chan models.Progress
}

func (j *fakeJob) Progress() <-chan models.Progress { return j.progress }

func (j *fakeJob) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelled = true
}

func (j *fakeJob) Wait() models.RunResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancelled {
		return *models.NewRunCancelled(0)
	}
	return models.RunResult{Outcome: models.RunSuccess}
}

func (j *fakeJob) wasCancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

type fakeRunner struct {
	invocations []*command.Invocation
	jobs        []*fakeJob
	err         error
}

func (r *fakeRunner) Start(_ context.Context, inv *command.Invocation) (Job, error) {
	if r.err != nil {
		return nil, r.err
	}
	if err := os.WriteFile(inv.OutputPath, []byte("preview"), 0o644); err != nil {
		return nil, err
	}
	job := &fakeJob{progress: make(chan models.Progress)}
	close(job.progress)
	r.invocations = append(r.invocations, inv)
	r.jobs = append(r.jobs, job)
	return job, nil
}

func testProject() *models.Project {
	p := models.NewProject()
	p.AddVideo(models.VideoClip{Path: "/v/a.mp4", Duration: 30}, models.VideoClip{Path: "/v/b.mp4", Duration: 30})
	return p
}

func newTestController(t *testing.T) (*Controller, *fakeRunner, string) {
	t.Helper()
	dir := t.TempDir()
	runner := &fakeRunner{}
	c, err := NewController(Options{Runner: runner, TempDir: dir, FFmpegPath: "/usr/bin/ffmpeg"})
	require.NoError(t, err)
	return c, runner, dir
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestNewController_RequiresRunner(t *testing.T) {
	_, err := NewController(Options{})
	assert.Error(t, err)
}

func TestStart(t *testing.T) {
	c, runner, dir := newTestController(t)

	_, err := c.Start(context.Background(), testProject(), 5)
	require.NoError(t, err)

	path := c.Path()
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), FilePrefix))
	assert.Equal(t, FileExt, filepath.Ext(path))
	assert.FileExists(t, path)

	require.Len(t, runner.invocations, 1)
	inv := runner.invocations[0]
	assert.Equal(t, command.KindPreview, inv.Kind)
	assert.True(t, inv.IsTemporary())
	assert.Equal(t, "/usr/bin/ffmpeg", inv.Binary)
	assert.Equal(t, path, inv.OutputPath)
	assert.Equal(t, "5", argValue(inv.Args, "-t"))
	assert.Equal(t, "ultrafast", argValue(inv.Args, "-preset"))
}

func TestStart_DefaultSeconds(t *testing.T) {
	c, runner, _ := newTestController(t)

	_, err := c.Start(context.Background(), testProject(), 0)
	require.NoError(t, err)
	assert.Equal(t, "60", argValue(runner.invocations[0].Args, "-t"))
}

func TestStart_ReplacesRunningPreview(t *testing.T) {
	c, runner, _ := newTestController(t)

	_, err := c.Start(context.Background(), testProject(), 5)
	require.NoError(t, err)
	first := c.Path()

	_, err = c.Start(context.Background(), testProject(), 5)
	require.NoError(t, err)
	second := c.Path()

	assert.NotEqual(t, first, second)
	assert.True(t, runner.jobs[0].wasCancelled())
	assert.False(t, runner.jobs[1].wasCancelled())
	assert.NoFileExists(t, first)
	assert.FileExists(t, second)
}

func TestStop(t *testing.T) {
	c, runner, _ := newTestController(t)

	_, err := c.Start(context.Background(), testProject(), 5)
	require.NoError(t, err)
	path := c.Path()

	c.Stop()
	assert.True(t, runner.jobs[0].wasCancelled())
	assert.NoFileExists(t, path)
	assert.Empty(t, c.Path())

	c.Stop()
}

func TestClose(t *testing.T) {
	c, _, _ := newTestController(t)

	_, err := c.Start(context.Background(), testProject(), 5)
	require.NoError(t, err)
	path := c.Path()

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.NoFileExists(t, path)

	_, err = c.Start(context.Background(), testProject(), 5)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStart_Errors(t *testing.T) {
	c, runner, _ := newTestController(t)

	_, err := c.Start(context.Background(), models.NewProject(), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, filter.ErrEmptyInput))
	assert.Empty(t, runner.invocations)

	runner.err = errors.New("boom")
	_, err = c.Start(context.Background(), testProject(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Empty(t, c.Path())
}

func TestSweepStale(t *testing.T) {
	dir := t.TempDir()
	stale := []string{
		filepath.Join(dir, "vmpreview-1.mkv"),
		filepath.Join(dir, "vmpreview-2.mkv"),
	}
	keep := []string{
		filepath.Join(dir, "vmpreview-3.mp4"),
		filepath.Join(dir, "holiday.mkv"),
	}
	for _, p := range append(append([]string{}, stale...), keep...) {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vmpreview-dir.mkv"), 0o755))

	removed, err := SweepStale(dir, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, stale, removed)
	for _, p := range stale {
		assert.NoFileExists(t, p)
	}
	for _, p := range keep {
		assert.FileExists(t, p)
	}

	_, err = SweepStale(filepath.Join(dir, "missing"), nil)
	assert.Error(t, err)
}

func TestFromFFmpeg_LaunchError(t *testing.T) {
	r := FromFFmpeg(ffmpeg.NewRunner(ffmpeg.Options{}))
	job, err := r.Start(context.Background(), &command.Invocation{
		Binary:     "videomusique-no-such-tool",
		OutputPath: filepath.Join(t.TempDir(), "p.mkv"),
	})
	assert.ErrorIs(t, err, ffmpeg.ErrToolNotFound)
	assert.Nil(t, job)
}
