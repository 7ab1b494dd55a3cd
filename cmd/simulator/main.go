// Package main provides the simulator binary: it loads a configuration,
// runs a batch of encounters, prints the report, and optionally stores the
// result.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/cory-johannsen/simfell/internal/config"
	"github.com/cory-johannsen/simfell/internal/observability"
	"github.com/cory-johannsen/simfell/internal/report"
	"github.com/cory-johannsen/simfell/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/rime.yaml", "path to configuration file")
	iterations := flag.Int("iterations", 0, "override simulation.iterations (0 = use config)")
	verbose := flag.Bool("verbose", false, "trace every simulation event at debug level")
	history := flag.Int("history", 0, "list the N most recent stored runs for the archetype and exit")
	show := flag.String("show", "", "print the stored run with this id and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *iterations > 0 {
		cfg.Simulation.Iterations = *iterations
	}
	if *verbose {
		cfg.Simulation.Verbose = true
		cfg.Logging.Level = "debug"
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var repo *postgres.ResultRepository
	if cfg.Database.Enabled || *history > 0 || *show != "" {
		dbStart := time.Now()
		repo, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer repo.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
	}

	switch {
	case *show != "":
		id, err := uuid.Parse(*show)
		if err != nil {
			logger.Fatal("parsing run id", zap.Error(err))
		}
		stored, err := repo.Get(ctx, id)
		if err != nil {
			logger.Fatal("loading run", zap.Error(err))
		}
		printStored(os.Stdout, []postgres.Run{stored})
		return
	case *history > 0:
		runs, err := repo.ListByArchetype(ctx, cfg.Character.Archetype, *history)
		if err != nil {
			logger.Fatal("listing runs", zap.Error(err))
		}
		printStored(os.Stdout, runs)
		return
	}

	res, err := simulate(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	header := report.Header{
		Archetype: cfg.Character.Archetype,
		Talents:   cfg.Character.Talents,
		Duration:  cfg.Simulation.Duration,
		Enemies:   cfg.Simulation.Enemies,
	}
	if repo != nil {
		if err := repo.Ping(ctx); err != nil {
			logger.Fatal("database unavailable after simulation", zap.Error(err))
		}
		stored, err := repo.Save(ctx, toRun(cfg, res))
		if err != nil {
			logger.Fatal("storing run", zap.Error(err))
		}
		header.RunID = stored.ID.String()
	}

	if err := report.New(language.English).Write(os.Stdout, header, res); err != nil {
		logger.Fatal("writing report", zap.Error(err))
	}
	logger.Info("simulation complete",
		zap.Int("iterations", res.Summary.Iterations),
		zap.Float64("dps", res.Summary.Mean),
		zap.Duration("elapsed", time.Since(start)),
	)
}
