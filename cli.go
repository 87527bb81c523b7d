package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Dayti-0/Video-Musique/command"
	"github.com/Dayti-0/Video-Musique/command/mixing"
	"github.com/Dayti-0/Video-Musique/config"
	"github.com/Dayti-0/Video-Musique/duration"
	"github.com/Dayti-0/Video-Musique/ffmpeg"
	"github.com/Dayti-0/Video-Musique/ffprobe"
	"github.com/Dayti-0/Video-Musique/hwaccel"
	"github.com/Dayti-0/Video-Musique/internal/timeutil"
	"github.com/Dayti-0/Video-Musique/models"
	"github.com/Dayti-0/Video-Musique/preview"
)

type commandFunc func(ctx context.Context, a *app, args []string) error

var commands = map[string]commandFunc{
	"export":   runExport,
	"plan":     runPlan,
	"preview":  runPreview,
	"duration": runDuration,
	"hwinfo":   runHWInfo,
}

// app wires the engine components from the configuration.
type app struct {
	cfg    *config.Config
	logger hclog.Logger
	out    io.Writer

	tools    command.CommandRunner
	store    *duration.SQLiteStore
	resolver *duration.Resolver
	detector *hwaccel.Detector
	runner   *ffmpeg.Runner
}

func newApp(cfg *config.Config, logger hclog.Logger) (*app, error) {
	return newAppWithRunner(cfg, logger, command.DefaultRunner{}, os.Stdout)
}

func newAppWithRunner(cfg *config.Config, logger hclog.Logger, tools command.CommandRunner, out io.Writer) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    out,
		tools:  tools,
	}

	var store duration.Store
	if cfg.Probe.CacheDB != "" {
		s, err := duration.OpenSQLiteStore(cfg.Probe.CacheDB)
		if err != nil {
			return nil, err
		}
		a.store = s
		store = s
	}

	a.resolver = duration.NewResolver(duration.Options{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		Runner:      tools,
		Workers:     cfg.Probe.Workers,
		Timeout:     cfg.Probe.Timeout,
		Store:       store,
		Logger:      logger,
	})
	a.detector = hwaccel.NewDetector(cfg.FFmpegPath, tools, logger)
	a.runner = ffmpeg.NewRunner(ffmpeg.Options{
		GracePeriod:      cfg.Runner.GracePeriod,
		MinProgressDelta: cfg.Runner.MinProgressDelta,
		KeepPartial:      cfg.Runner.KeepPartial,
		Logger:           logger,
	})
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close duration cache", "error", err)
		}
	}
}

// backend returns the configured backend, probing ffmpeg when set to auto.
func (a *app) backend(ctx context.Context) hwaccel.Backend {
	if a.cfg.Hardware == config.HardwareAuto {
		return a.detector.Detect(ctx)
	}
	b, err := hwaccel.ParseBackend(a.cfg.Hardware)
	if err != nil {
		return hwaccel.BackendNone
	}
	return b
}

// loadProject reads the manifest and resolves every media duration.
func (a *app) loadProject(ctx context.Context, args []string) (*models.Project, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected exactly one project file, got %d arguments", len(args))
	}
	p, err := config.LoadProject(args[0], a.cfg.ProjectSettings())
	if err != nil {
		return nil, err
	}
	a.resolver.Hydrate(ctx, p)
	if err := ctx.Err(); err != nil {
		return nil, errCancelled
	}
	return p, nil
}

func (a *app) buildExport(ctx context.Context, args []string, output string) (*command.Invocation, error) {
	p, err := a.loadProject(ctx, args)
	if err != nil {
		return nil, err
	}

	builder := mixing.NewMixingBuilder(p, output).SetBinary(a.cfg.FFmpegPath).SetLogger(a.logger)
	if p.Settings.UseHardwareAcceleration {
		builder.SetBackend(a.backend(ctx))
	}
	return builder.Build()
}

func runExport(ctx context.Context, a *app, args []string) error {
	if a.cfg.Output == "" {
		return fmt.Errorf("export requires -o OUTPUT")
	}
	inv, err := a.buildExport(ctx, args, a.cfg.Output)
	if err != nil {
		return err
	}

	if a.cfg.DryRun {
		fmt.Fprintln(a.out, inv.DryRun())
		return nil
	}

	fmt.Fprintf(a.out, "🎬 Exporting %s (%s, encoder %s)\n", inv.OutputPath, timeutil.FormatClock(inv.Timeline), inv.Encoder)
	res, err := a.runner.Run(ctx, inv, a.progressPrinter())
	if err != nil {
		return err
	}
	if err := a.report(res); err != nil {
		return err
	}

	if abs, err := filepath.Abs(inv.OutputPath); err == nil {
		if err := config.RememberDirectory(a.cfg, filepath.Dir(abs)); err != nil {
			a.logger.Warn("failed to remember export directory", "error", err)
		}
	}
	return nil
}

func runPlan(ctx context.Context, a *app, args []string) error {
	output := a.cfg.Output
	if output == "" {
		output = "output.mp4"
	}
	inv, err := a.buildExport(ctx, args, output)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Timeline: %s (%.3fs)\n", timeutil.FormatClock(inv.Timeline), inv.Timeline)
	fmt.Fprintf(a.out, "Encoder:  %s (backend %s)\n", inv.Encoder, inv.Backend)
	fmt.Fprintln(a.out, inv.DryRun())
	return nil
}

func runPreview(ctx context.Context, a *app, args []string) error {
	if _, err := preview.SweepStale(a.cfg.Preview.TempDir, a.logger); err != nil {
		a.logger.Warn("failed to sweep stale previews", "error", err)
	}

	p, err := a.loadProject(ctx, args)
	if err != nil {
		return err
	}

	backend := hwaccel.BackendNone
	if p.Settings.UseHardwareAcceleration {
		backend = a.backend(ctx)
	}
	ctrl, err := preview.NewController(preview.Options{
		Runner:     preview.FromFFmpeg(a.runner),
		TempDir:    a.cfg.Preview.TempDir,
		FFmpegPath: a.cfg.FFmpegPath,
		Backend:    backend,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}

	job, err := ctrl.Start(ctx, p, a.cfg.Preview.Seconds)
	if err != nil {
		return err
	}
	path := ctrl.Path()

	printer := a.progressPrinter()
	for prog := range job.Progress() {
		printer(prog)
	}
	res := job.Wait()
	if err := a.report(res); err != nil {
		ctrl.Close()
		return err
	}

	// The file stays for playback; the next preview sweeps it.
	fmt.Fprintln(a.out, path)
	return nil
}

func runDuration(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("duration requires at least one file")
	}

	durations := a.resolver.ResolveAll(ctx, args)
	if ctx.Err() != nil {
		return errCancelled
	}

	prober := ffprobe.New(a.cfg.FFprobePath, a.tools)
	for i, path := range args {
		d := durations[i]
		clock := "unknown"
		if d > 0 {
			clock = timeutil.FormatClock(d)
		}
		line := fmt.Sprintf("%s\t%s\t%.3f", path, clock, d)
		if info := streamSummary(ctx, prober, path); info != "" {
			line += "\t" + info
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// streamSummary describes the container and streams of path, or "" when
// ffprobe cannot read it.
func streamSummary(ctx context.Context, prober *ffprobe.Prober, path string) string {
	res, err := prober.Probe(ctx, path)
	if err != nil {
		return ""
	}
	var parts []string
	if res.Format.FormatName != "" {
		parts = append(parts, res.Format.FormatName)
	}
	if n := len(res.GetVideoStreams()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d video", n))
	}
	if n := len(res.GetAudioStreams()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d audio", n))
	}
	return strings.Join(parts, ", ")
}

func runHWInfo(ctx context.Context, a *app, _ []string) error {
	tools, lookupErr := ffmpeg.LookupTools(a.cfg.FFmpegPath, a.cfg.FFprobePath)
	fmt.Fprintln(a.out, "Tools:")
	for _, t := range tools {
		switch {
		case t.Found():
			fmt.Fprintf(a.out, "  %-8s %s\n", filepath.Base(t.Name), t.Path)
		case t.Required:
			fmt.Fprintf(a.out, "  %-8s missing (required)\n", filepath.Base(t.Name))
		default:
			fmt.Fprintf(a.out, "  %-8s missing (optional)\n", filepath.Base(t.Name))
		}
	}
	if lookupErr != nil {
		return lookupErr
	}

	fmt.Fprintln(a.out, "Encoder:")
	if a.cfg.Hardware != config.HardwareAuto {
		b := a.backend(ctx)
		fmt.Fprintf(a.out, "  backend  %s (configured)\n  encoder  %s\n", b, hwaccel.EncoderName(b))
		return nil
	}
	s := a.detector.Summary(ctx)
	fmt.Fprintf(a.out, "  backend  %s\n  encoder  %s\n", s.Backend, s.Encoder)
	return nil
}

// progressPrinter renders progress on one terminal line, or as JSON lines
// when logging in JSON.
func (a *app) progressPrinter() models.ProgressCallback {
	return func(p models.Progress) {
		if a.cfg.Log.JSON {
			if line, err := ffmpeg.FormatProgressJSON(p); err == nil {
				fmt.Fprintln(a.out, line)
			}
			return
		}
		fmt.Fprintf(a.out, "\r  %s", p.FormatSummary())
		if p.State == models.ProgressStateCompleted {
			fmt.Fprintln(a.out)
		}
	}
}

// report prints the outcome and converts it to the command error.
func (a *app) report(res models.RunResult) error {
	switch res.Outcome {
	case models.RunSuccess:
		fmt.Fprintf(a.out, "✅ Done in %s\n", res.Elapsed.Round(100*time.Millisecond))
		return nil
	case models.RunCancelled:
		return errCancelled
	default:
		return res.Err
	}
}
