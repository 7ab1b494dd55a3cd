package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/cory-johannsen/simfell/internal/config"
	"github.com/cory-johannsen/simfell/internal/game/character"
	"github.com/cory-johannsen/simfell/internal/game/dice"
	"github.com/cory-johannsen/simfell/internal/game/rime"
	"github.com/cory-johannsen/simfell/internal/game/trace"
	"github.com/cory-johannsen/simfell/internal/observability"
	"github.com/cory-johannsen/simfell/internal/report"
	"github.com/cory-johannsen/simfell/internal/rotation"
	"github.com/cory-johannsen/simfell/internal/scripting"
	"github.com/cory-johannsen/simfell/internal/sim"
	"github.com/cory-johannsen/simfell/internal/storage/postgres"
)

// newRegistry returns a registry holding every playable archetype.
func newRegistry() *character.Registry {
	reg := character.NewRegistry()
	rime.Register(reg)
	return reg
}

// simulate runs the batch described by cfg. Every run gets its own
// character, Lua evaluator, and random source.
//
// Precondition: cfg passed Validate.
func simulate(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sim.BatchResult, error) {
	actions, err := cfg.Rotation.List()
	if err != nil {
		return nil, fmt.Errorf("loading rotation: %w", err)
	}
	if err := compileConditions(actions, cfg.Scripting.InstructionLimit, logger); err != nil {
		return nil, err
	}

	reg := newRegistry()
	build := cfg.Character.Build()
	sink := trace.Nop()
	if cfg.Simulation.Verbose {
		sink = observability.NewTraceSink(logger)
	}

	logger.Info("starting simulation",
		zap.String("archetype", build.Archetype),
		zap.Int("iterations", cfg.Simulation.Iterations),
		zap.Int("actions", len(actions)),
		zap.Bool("deterministic", cfg.Simulation.Deterministic),
	)
	return sim.RunBatch(ctx, sim.BatchConfig{
		Iterations:    cfg.Simulation.Iterations,
		Concurrency:   cfg.Simulation.Concurrency,
		Seed:          cfg.Simulation.Seed,
		Deterministic: cfg.Simulation.Deterministic,
		Verbose:       cfg.Simulation.Verbose,
	}, func(i int, src dice.Source) (*sim.Engine, error) {
		runLogger := logger.With(zap.Int("run", i))
		c, err := reg.Build(build, runLogger)
		if err != nil {
			return nil, err
		}
		eval := scripting.NewEvaluator(runLogger, cfg.Scripting.InstructionLimit)
		eng, err := sim.New(c, sim.Config{
			Duration:  cfg.Simulation.Duration,
			Enemies:   cfg.Simulation.Enemies,
			Actions:   actions,
			Evaluator: eval,
			Source:    src,
			Logger:    runLogger,
			Trace:     sink,
		})
		if err != nil {
			eval.Close()
			return nil, err
		}
		return eng, nil
	})
}

// compileConditions rejects a rotation whose conditions do not parse before
// any run starts.
func compileConditions(actions rotation.List, limit int, logger *zap.Logger) error {
	eval := scripting.NewEvaluator(logger, limit)
	defer eval.Close()
	for i, a := range actions {
		for _, cond := range a.Conditions {
			if err := eval.Compile(cond); err != nil {
				return fmt.Errorf("action %d (%s): %w", i, a.Name, err)
			}
		}
	}
	return nil
}

// toRun converts a batch result into its stored form.
func toRun(cfg config.Config, res *sim.BatchResult) postgres.Run {
	b := cfg.Character.Build()
	run := postgres.Run{
		Archetype: b.Archetype,
		Talents:   b.Talents,
		Stats: postgres.RunStats{
			MainStat:  b.MainStat,
			Crit:      b.Crit,
			Expertise: b.Expertise,
			Haste:     b.Haste,
			Spirit:    b.Spirit,
		},
		Duration:   cfg.Simulation.Duration,
		Enemies:    cfg.Simulation.Enemies,
		Iterations: res.Summary.Iterations,
		DPSMean:    res.Summary.Mean,
		DPSMin:     res.Summary.Min,
		DPSMax:     res.Summary.Max,
		DPSStdDev:  res.Summary.StdDev,
	}
	if cfg.Simulation.Deterministic {
		seed := cfg.Simulation.Seed
		run.Seed = &seed
	}
	for _, l := range report.Abilities(res.Runs) {
		run.Abilities = append(run.Abilities, postgres.AbilityResult{
			ID: l.ID, Casts: l.Casts, CritRate: l.CritRate, DPS: l.DPS, Share: l.Share,
		})
	}
	return run
}

// printStored lists stored runs, one per line.
func printStored(w io.Writer, runs []postgres.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCreated\tArchetype\tIterations\tDPS\tStd dev")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.1f\t%.1f\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Archetype, r.Iterations, r.DPSMean, r.DPSStdDev)
	}
	_ = tw.Flush()
}
