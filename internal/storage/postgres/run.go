// Package postgres stores simulation results in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/simfell/internal/config"
)

// ErrRunNotFound is returned when a run lookup yields no results.
var ErrRunNotFound = errors.New("run not found")

// ErrRunExists is returned when saving a run whose id is already stored.
var ErrRunExists = errors.New("run already exists")

// RunStats is the character stat snapshot a batch was simulated with.
type RunStats struct {
	MainStat  float64 `json:"main_stat"`
	Crit      float64 `json:"crit"`
	Expertise float64 `json:"expertise"`
	Haste     float64 `json:"haste"`
	Spirit    float64 `json:"spirit"`
}

// AbilityResult is one ability's averaged contribution to a batch.
type AbilityResult struct {
	ID       string  `json:"id"`
	Casts    float64 `json:"casts"`
	CritRate float64 `json:"crit_rate"`
	DPS      float64 `json:"dps"`
	Share    float64 `json:"share"`
}

// Run is one stored batch result.
type Run struct {
	ID         uuid.UUID
	Archetype  string
	Talents    []string
	Stats      RunStats
	Duration   float64
	Enemies    int
	Iterations int
	// Seed is the seed of the first run; nil for non-deterministic batches.
	Seed      *uint64
	DPSMean   float64
	DPSMin    float64
	DPSMax    float64
	DPSStdDev float64
	Abilities []AbilityResult
	CreatedAt time.Time
}

// ResultRepository provides run persistence operations over its own
// connection pool.
type ResultRepository struct {
	db          *pgxpool.Pool
	pingTimeout time.Duration
}

// Open connects to the database described by cfg.
//
// Precondition: cfg must pass config validation.
// Postcondition: Returns a repository whose database answered a ping within
// cfg.PingTimeout, or a non-nil error and no open connections.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*ResultRepository, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	r := &ResultRepository{db: pool, pingTimeout: cfg.PingTimeout}
	if err := r.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return r, nil
}

// Ping reports whether the database answers within the configured timeout.
func (r *ResultRepository) Ping(ctx context.Context) error {
	if r.pingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.pingTimeout)
		defer cancel()
	}
	return r.db.Ping(ctx)
}

// Close releases the pool.
//
// Postcondition: The repository is no longer usable.
func (r *ResultRepository) Close() {
	r.db.Close()
}

const runColumns = `id, archetype, talents, stats, duration, enemies, iterations, seed,
	dps_mean, dps_min, dps_max, dps_stddev, abilities, created_at`

// Save inserts run. A zero ID is replaced with a new random UUID.
//
// Precondition: run.Archetype must be non-empty.
// Postcondition: Returns the stored run with ID and CreatedAt set, or
// ErrRunExists when the id is taken.
func (r *ResultRepository) Save(ctx context.Context, run Run) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Talents == nil {
		run.Talents = []string{}
	}
	if run.Abilities == nil {
		run.Abilities = []AbilityResult{}
	}
	var seed *int64
	if run.Seed != nil {
		s := int64(*run.Seed)
		seed = &s
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO sim_runs
			(id, archetype, talents, stats, duration, enemies, iterations, seed,
			 dps_mean, dps_min, dps_max, dps_stddev, abilities)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING `+runColumns,
		run.ID, run.Archetype, run.Talents, run.Stats, run.Duration, run.Enemies, run.Iterations, seed,
		run.DPSMean, run.DPSMin, run.DPSMax, run.DPSStdDev, run.Abilities,
	)
	out, err := scanRun(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Run{}, ErrRunExists
		}
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return out, nil
}

// Get retrieves a run by id.
//
// Postcondition: Returns the Run or ErrRunNotFound.
func (r *ResultRepository) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := r.db.QueryRow(ctx, `SELECT `+runColumns+` FROM sim_runs WHERE id = $1`, id)
	out, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("querying run: %w", err)
	}
	return out, nil
}

// ListByArchetype returns up to limit runs for archetype, newest first.
//
// Precondition: limit must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ResultRepository) ListByArchetype(ctx context.Context, archetype string, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0, got %d", limit)
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+runColumns+`
		FROM sim_runs WHERE archetype = $1
		ORDER BY created_at DESC, id
		LIMIT $2`,
		archetype, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (Run, error) {
	var (
		run  Run
		seed *int64
	)
	err := row.Scan(
		&run.ID, &run.Archetype, &run.Talents, &run.Stats, &run.Duration, &run.Enemies,
		&run.Iterations, &seed, &run.DPSMean, &run.DPSMin, &run.DPSMax, &run.DPSStdDev,
		&run.Abilities, &run.CreatedAt,
	)
	if err != nil {
		return Run{}, err
	}
	if seed != nil {
		s := uint64(*seed)
		run.Seed = &s
	}
	return run, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation.
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
