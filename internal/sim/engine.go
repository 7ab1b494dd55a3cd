// Package sim runs a character's rotation against a timed encounter and
// reports the resulting damage per second.
package sim

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/simfell/internal/game/character"
	"github.com/cory-johannsen/simfell/internal/game/dice"
	"github.com/cory-johannsen/simfell/internal/game/effect"
	"github.com/cory-johannsen/simfell/internal/game/trace"
	"github.com/cory-johannsen/simfell/internal/rotation"
)

const (
	// MinStep is the clock advance when no action could be cast.
	MinStep = 0.1
	// stallLimit bounds consecutive casts at one instant.
	stallLimit = 1000
	// gcdEpsilon is the residue left by rounding a GCD wait to two decimals.
	gcdEpsilon = 0.005
)

// ErrStalled is returned when casts keep resolving without the clock advancing.
var ErrStalled = errors.New("sim: clock stalled")

// Config describes one encounter.
type Config struct {
	Duration  float64
	Enemies   int
	Actions   rotation.List
	Evaluator rotation.Evaluator // nil permits every action
	Source    dice.Source        // nil uses a crypto source
	Logger    *zap.Logger        // nil uses a no-op logger
	Trace     trace.Sink         // nil discards events
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be > 0, got %v", c.Duration))
	}
	if c.Enemies < 1 {
		errs = append(errs, fmt.Errorf("enemies must be >= 1, got %d", c.Enemies))
	}
	if err := c.Actions.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AbilityStats accumulates damage per source id.
type AbilityStats struct {
	ID     string
	Casts  int
	Hits   int
	Crits  int
	Damage float64
}

// Engine owns the clock, the global cooldown, and the shared debuff table of
// one encounter. It implements spell.Encounter.
//
// Engine is single-threaded; run independent engines in parallel instead.
type Engine struct {
	cfg     Config
	char    character.Character
	roller  *dice.Roller
	debuffs *effect.Table
	logger  *zap.Logger
	sink    trace.Sink

	time        float64
	gcd         float64
	totalDamage float64
	casts       int
	stats       map[string]*AbilityStats
	missing     map[int]bool
	ran         bool
}

// New joins c to a fresh encounter described by cfg.
//
// Precondition: c was built for this run alone.
// Postcondition: c.Encounter() returns the new Engine.
func New(c character.Character, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim config: %w", err)
	}
	if cfg.Evaluator == nil {
		cfg.Evaluator = rotation.Always
	}
	if cfg.Source == nil {
		cfg.Source = dice.NewCryptoSource()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Trace == nil {
		cfg.Trace = trace.Nop()
	}
	e := &Engine{
		cfg:     cfg,
		char:    c,
		roller:  dice.NewLoggedRoller(cfg.Source, cfg.Logger),
		debuffs: effect.NewTable(),
		logger:  cfg.Logger,
		sink:    cfg.Trace,
		stats:   make(map[string]*AbilityStats),
		missing: make(map[int]bool),
	}
	e.debuffs.Observe(e, e.sink)
	c.SetEncounter(e)
	return e, nil
}

func (e *Engine) Now() float64           { return e.time }
func (e *Engine) Enemies() int           { return e.cfg.Enemies }
func (e *Engine) Roller() *dice.Roller   { return e.roller }
func (e *Engine) Debuffs() *effect.Table { return e.debuffs }
func (e *Engine) Trace() trace.Sink      { return e.sink }

// GCD returns the remaining global cooldown.
func (e *Engine) GCD() float64 { return e.gcd }

// Character returns the simulated character.
func (e *Engine) Character() character.Character { return e.char }

// TriggerGCD starts the global cooldown.
func (e *Engine) TriggerGCD(d float64) { e.gcd = d }

// DealDamage adds amount to the encounter total and the breakdown of sourceID.
func (e *Engine) DealDamage(sourceID string, amount float64, crit bool) {
	e.totalDamage += amount
	s := e.statsFor(sourceID)
	s.Hits++
	s.Damage += amount
	if crit {
		s.Crits++
	}
}

// Debuff returns the live debuff with id.
func (e *Engine) Debuff(id string) (*effect.Effect, bool) {
	return e.debuffs.Get(id)
}

// TotalDamage returns the damage dealt so far.
func (e *Engine) TotalDamage() float64 { return e.totalDamage }

func (e *Engine) statsFor(id string) *AbilityStats {
	s, ok := e.stats[id]
	if !ok {
		s = &AbilityStats{ID: id}
		e.stats[id] = s
	}
	return s
}

// Run simulates the encounter and returns total damage divided by the
// configured duration. verbose additionally traces every idle step and GCD
// wait. An Engine runs once.
//
// The clock is checked only at the top of each pass: a GCD wait that carries
// the clock past duration is still followed by one scan, and that cast counts.
//
// Postcondition: Now() > duration on success.
func (e *Engine) Run(verbose bool) (float64, error) {
	if e.ran {
		return 0, errors.New("sim: engine already ran")
	}
	e.ran = true
	e.logger.Debug("simulation starting",
		zap.String("archetype", e.char.Archetype()),
		zap.Float64("duration", e.cfg.Duration),
		zap.Int("enemies", e.cfg.Enemies),
		zap.Int("actions", len(e.cfg.Actions)),
	)

	view := stateView{e: e}
	stalled := 0
	for e.time <= e.cfg.Duration {
		if e.gcd > 0 {
			if verbose {
				e.sink.Emit(trace.Event{Time: e.time, Kind: trace.KindWait, Amount: e.gcd, Detail: "gcd"})
			}
			e.updateTime(e.gcd)
			stalled = 0
		}

		before := e.time
		cast, err := e.scan(view)
		if err != nil {
			return 0, err
		}
		if !cast {
			if verbose {
				e.sink.Emit(trace.Event{Time: e.time, Kind: trace.KindWait, Amount: MinStep, Detail: "idle"})
			}
			e.updateTime(MinStep)
			stalled = 0
			continue
		}
		if e.time == before && e.gcd <= 0 {
			stalled++
			if stalled > stallLimit {
				return 0, fmt.Errorf("%w at t=%.2f after %d casts", ErrStalled, e.time, stalled)
			}
		}
	}

	dps := e.totalDamage / e.cfg.Duration
	e.logger.Debug("simulation finished",
		zap.Float64("damage", e.totalDamage),
		zap.Float64("dps", dps),
		zap.Int("casts", e.casts),
	)
	return dps, nil
}

// scan casts the first ready, permitted action in declared order.
func (e *Engine) scan(view rotation.State) (bool, error) {
	for i, action := range e.cfg.Actions {
		sp, ok := e.char.Spell(action.AbilityID())
		if !ok {
			if !e.missing[i] {
				e.missing[i] = true
				e.logger.Warn("rotation action references unknown ability",
					zap.Int("index", i), zap.String("action", action.Name))
				e.sink.Emit(trace.Event{Time: e.time, Kind: trace.KindSkip, Subject: action.Name})
			}
			continue
		}
		if !sp.IsReady() || !e.cfg.Evaluator.Evaluate(action.Conditions, view) {
			continue
		}
		if _, err := sp.Cast(true); err != nil {
			return false, fmt.Errorf("casting %s: %w", sp.ID(), err)
		}
		e.casts++
		e.statsFor(sp.ID()).Casts++
		return true, nil
	}
	return false, nil
}

// updateTime advances the clock by dt rounded to two decimals, then updates
// cooldowns in spell-book order, character buffs, and shared debuffs.
func (e *Engine) updateTime(dt float64) {
	dt = math.Round(dt*100) / 100
	e.time += dt
	e.gcd -= dt
	if e.gcd < gcdEpsilon {
		e.gcd = 0
	}
	for _, sp := range e.char.Spells() {
		sp.UpdateCooldown(dt)
	}
	e.char.Buffs().Update(dt)
	e.debuffs.Update(dt)
}

// Breakdown returns per-source statistics, highest damage first.
func (e *Engine) Breakdown() []AbilityStats {
	out := make([]AbilityStats, 0, len(e.stats))
	for _, s := range e.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Damage != out[j].Damage {
			return out[i].Damage > out[j].Damage
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Close releases the evaluator when it holds resources.
func (e *Engine) Close() {
	if c, ok := e.cfg.Evaluator.(interface{ Close() }); ok {
		c.Close()
	}
}
