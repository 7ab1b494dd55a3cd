package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/simfell/internal/game/dice"
)

// BatchConfig controls a batch of independent runs.
type BatchConfig struct {
	Iterations    int
	Concurrency   int // <= 0 uses GOMAXPROCS
	Seed          uint64
	Deterministic bool
	Verbose       bool
}

// BuildFunc constructs a fresh engine for run i drawing from src.
// Each call must return an engine sharing no mutable state with any other.
// RunBatch closes every engine it builds.
type BuildFunc func(i int, src dice.Source) (*Engine, error)

// BatchResult holds every run in index order plus the DPS summary.
type BatchResult struct {
	Runs    []Result
	Summary Summary
}

// RunBatch runs cfg.Iterations engines in parallel. Deterministic batches
// seed run i with Seed+i, so results do not depend on scheduling.
//
// Precondition: cfg.Iterations >= 1; build must be non-nil.
func RunBatch(ctx context.Context, cfg BatchConfig, build BuildFunc) (*BatchResult, error) {
	if cfg.Iterations < 1 {
		return nil, fmt.Errorf("iterations must be >= 1, got %d", cfg.Iterations)
	}
	if build == nil {
		return nil, errors.New("sim: nil build func")
	}
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	runs := make([]Result, cfg.Iterations)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range cfg.Iterations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seed := cfg.Seed + uint64(i)
			var src dice.Source
			if cfg.Deterministic {
				src = dice.NewSeededSource(seed)
			} else {
				src = dice.NewCryptoSource()
			}
			eng, err := build(i, src)
			if err != nil {
				return fmt.Errorf("building run %d: %w", i, err)
			}
			defer eng.Close()
			if _, err := eng.Run(cfg.Verbose); err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			r := eng.Result()
			if cfg.Deterministic {
				r.Seed = seed
			}
			runs[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dps := make([]float64, len(runs))
	for i, r := range runs {
		dps[i] = r.DPS
	}
	return &BatchResult{Runs: runs, Summary: Summarize(dps)}, nil
}
