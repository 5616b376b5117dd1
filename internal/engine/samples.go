package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhsa24/randomwalk/internal/lineage"
)

// SamplerFactory builds the samplers for one sample. Implementations must
// give every sample an independent random stream.
type SamplerFactory func(sample int) (Samplers, error)

// RunSamples runs n independent samples of cfg, at most workers at a time
// (workers <= 0 means unbounded), and returns their lineage stores in
// sample order. The options are applied to every sample's engine.
func RunSamples(ctx context.Context, cfg Config, n, workers int, newSamplers SamplerFactory, opts ...Option) ([]*lineage.Store, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: at least one sample is required, got %d", ErrInvalidConfig, n)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stores := make([]*lineage.Store, n)
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i := range n {
		g.Go(func() error {
			s, err := newSamplers(i)
			if err != nil {
				return fmt.Errorf("sample %d: building samplers: %w", i, err)
			}

			sampleOpts := make([]Option, 0, len(opts)+1)
			sampleOpts = append(sampleOpts, opts...)
			sampleOpts = append(sampleOpts, WithSample(i))

			e, err := New(cfg, s, sampleOpts...)
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}

			start := time.Now()
			if err := e.Run(ctx); err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			e.finish(time.Since(start))

			stores[i] = e.Store()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stores, nil
}

func (e *Engine) finish(elapsed time.Duration) {
	e.recorder.SampleDone(elapsed, e.store.Len())
	e.logger.Debug("sample done",
		"sample", e.sample,
		"walkers", e.store.Len(),
		"alive", e.store.Alive(),
		"duration", elapsed)
	if e.events != nil {
		e.events.Log(map[string]any{
			"event":   "sample_done",
			"sample":  e.sample,
			"walkers": e.store.Len(),
			"alive":   e.store.Alive(),
		})
	}
}
