// Package duration resolves media durations through an ordered chain of
// probing strategies, with a per-file cache keyed by modification time.
//
// Resolution never fails: a file whose duration cannot be determined by any
// strategy resolves to 0.
package duration

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Dayti-0/Video-Musique/command"
	"github.com/Dayti-0/Video-Musique/ffprobe"
	"github.com/Dayti-0/Video-Musique/internal/logging"
)

// ErrProbeExhausted is logged when every strategy failed for a file.
var ErrProbeExhausted = errors.New("duration: all probe strategies failed")

// DefaultWorkers is the batch concurrency used when Options.Workers is 0.
const DefaultWorkers = 4

// Options configures a Resolver.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	Runner      command.CommandRunner
	Workers     int
	Timeout     time.Duration // per strategy, 0 means no limit
	Store       Store         // optional persistent tier
	Logger      hclog.Logger

	// Strategies overrides the default chain.
	Strategies []Strategy
}

// Resolver determines durations of media files.
type Resolver struct {
	strategies []Strategy
	cache      *Cache
	store      Store
	workers    int
	timeout    time.Duration
	logger     hclog.Logger
}

// DefaultStrategies returns the standard chain: ffprobe format query,
// ffprobe stream query, tag-based native parsing, WAV header, ffmpeg decode.
func DefaultStrategies(ffmpegPath, ffprobePath string, runner command.CommandRunner) []Strategy {
	prober := ffprobe.New(ffprobePath, runner)
	return []Strategy{
		QuickProbe{Prober: prober},
		StreamProbe{Prober: prober},
		TagProbe{},
		WAVProbe{},
		DecodeProbe{Binary: ffmpegPath, Runner: runner},
	}
}

// NewResolver creates a Resolver with an empty cache.
func NewResolver(opts Options) *Resolver {
	strategies := opts.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies(opts.FFmpegPath, opts.FFprobePath, opts.Runner)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Resolver{
		strategies: strategies,
		cache:      NewCache(),
		store:      opts.Store,
		workers:    workers,
		timeout:    opts.Timeout,
		logger:     logging.OrNull(opts.Logger).Named("duration"),
	}
}

// Cache exposes the in-memory cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns the duration of path in seconds, or 0 when unknown.
func (r *Resolver) Resolve(ctx context.Context, path string) float64 {
	key, err := KeyFor(path)
	if err != nil {
		r.logger.Debug("cannot stat file, result not cached", "path", path, "error", err)
		d, _ := r.probe(ctx, path)
		return d
	}

	return r.cache.GetOrCompute(key, func() (float64, bool) {
		if d, ok := r.loadStored(ctx, key); ok {
			return d, true
		}
		d, err := r.probe(ctx, path)
		if err != nil && ctx.Err() != nil {
			// Not the file's fault; a later call may succeed.
			return 0, false
		}
		if err == nil {
			// Unknown durations stay in memory only so a later session
			// can retry once ffprobe is available.
			r.saveStored(ctx, key, d)
		}
		return d, true
	})
}

// probe runs the chain and returns the first strictly positive result.
func (r *Resolver) probe(ctx context.Context, path string) (float64, error) {
	for _, s := range r.strategies {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		d, err := r.runStrategy(ctx, s, path)
		if err != nil {
			r.logger.Debug("strategy failed", "strategy", s.Name(), "path", path, "error", err)
			continue
		}
		if d > 0 {
			r.logger.Trace("duration resolved", "strategy", s.Name(), "path", path, "seconds", d)
			return d, nil
		}
		r.logger.Debug("strategy returned no duration", "strategy", s.Name(), "path", path)
	}
	r.logger.Debug("duration unknown", "path", path, "error", ErrProbeExhausted)
	return 0, ErrProbeExhausted
}

func (r *Resolver) runStrategy(ctx context.Context, s Strategy, path string) (float64, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return s.Duration(ctx, path)
}

func (r *Resolver) loadStored(ctx context.Context, key Key) (float64, bool) {
	if r.store == nil {
		return 0, false
	}
	d, ok, err := r.store.Load(ctx, key)
	if err != nil {
		r.logger.Warn("duration store lookup failed", "path", key.Path, "error", err)
		return 0, false
	}
	return d, ok
}

func (r *Resolver) saveStored(ctx context.Context, key Key, d float64) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, key, d); err != nil {
		r.logger.Warn("duration store write failed", "path", key.Path, "error", err)
	}
}
