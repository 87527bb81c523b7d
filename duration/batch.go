package duration

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Dayti-0/Video-Musique/models"
)

// ResolveAll resolves every path with at most Workers probes in flight.
// Results are in input order. A cancelled ctx only shortens the probes
// still running; the batch itself always completes.
func (r *Resolver) ResolveAll(ctx context.Context, paths []string) []float64 {
	out := make([]float64, len(paths))
	if len(paths) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			out[i] = r.Resolve(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	r.logger.Debug("batch resolved", "files", len(paths), "workers", r.workers)
	return out
}

// Hydrate fills in the duration of every clip and track of p. A duration
// already set is kept when the file cannot be probed.
func (r *Resolver) Hydrate(ctx context.Context, p *models.Project) {
	paths := make([]string, 0, len(p.Videos)+len(p.AudioTracks))
	for _, v := range p.Videos {
		paths = append(paths, v.Path)
	}
	for _, t := range p.AudioTracks {
		paths = append(paths, t.Path)
	}

	durations := r.ResolveAll(ctx, paths)
	for i := range p.Videos {
		p.Videos[i].Duration = keepKnown(p.Videos[i].Duration, durations[i])
	}
	offset := len(p.Videos)
	for i := range p.AudioTracks {
		p.AudioTracks[i].Duration = keepKnown(p.AudioTracks[i].Duration, durations[offset+i])
	}
}

// keepKnown prefers a resolved duration but never replaces a known one
// with 0.
func keepKnown(current, resolved float64) float64 {
	if resolved > 0 {
		return resolved
	}
	return current
}
