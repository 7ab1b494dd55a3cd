// Package spell implements abilities: readiness, cast resolution, damage and
// cooldown bookkeeping.
package spell

import (
	"errors"
	"math"

	"github.com/cory-johannsen/simfell/internal/game/dice"
	"github.com/cory-johannsen/simfell/internal/game/effect"
	"github.com/cory-johannsen/simfell/internal/game/trace"
)

// GCD is the unhasted global cooldown in seconds.
const GCD = 1.5

// ErrNoEncounter is returned when a spell is cast by a caster that has not
// joined an encounter.
var ErrNoEncounter = errors.New("spell: caster has no encounter")

// Encounter is the simulation context a cast resolves against.
type Encounter interface {
	effect.Clock
	Enemies() int
	// TriggerGCD starts the global cooldown for d seconds.
	TriggerGCD(d float64)
	// DealDamage records damage dealt by the spell or effect with sourceID.
	DealDamage(sourceID string, amount float64, crit bool)
	Roller() *dice.Roller
	Debuffs() *effect.Table
	Trace() trace.Sink
}

// Caster is the character side of a cast.
type Caster interface {
	MainStat() float64
	Crit() float64
	Expertise() float64
	Haste() float64
	CritPower() float64
	DamageMultiplier() float64
	Encounter() Encounter
}

// Economy holds an archetype's resource rules. Spells gain the primary
// resource and pay their cost in the secondary one.
type Economy interface {
	Affordable(cost int) bool
	GainPrimary(n int)
	SpendSecondary(n int)
	GainSecondary(n int)
}

// Option configures a Spell at construction.
type Option func(*Spell)

// WithEconomy couples the spell's gain and cost to e.
func WithEconomy(e Economy) Option { return func(s *Spell) { s.economy = e } }

// OnCrit registers a hook run after a critical hit.
func OnCrit(fn func(*Spell)) Option {
	return func(s *Spell) { s.onCrit = append(s.onCrit, fn) }
}

// OnCastComplete registers a hook run after the cooldown resets and the
// resource economy has settled.
func OnCastComplete(fn func(*Spell)) Option {
	return func(s *Spell) { s.onComplete = append(s.onComplete, fn) }
}

// Spell is a castable ability bound to one caster.
//
// Invariant: Cooldown is non-increasing between casts and >= 0.
type Spell struct {
	Def       *Def
	Cooldown  float64 // remaining
	CritBonus float64 // additive crit percent granted by effects

	damage     *dice.Expression
	caster     Caster
	economy    Economy
	onCrit     []func(*Spell)
	onComplete []func(*Spell)
}

// New binds def to caster.
//
// Precondition: def passes Validate; caster must be non-nil.
func New(def *Def, caster Caster, opts ...Option) (*Spell, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	s := &Spell{Def: def, caster: caster}
	if def.Damage != "" {
		e, err := dice.Parse(def.Damage)
		if err != nil {
			return nil, err
		}
		s.damage = &e
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Spell) ID() string     { return s.Def.ID }
func (s *Spell) Caster() Caster { return s.caster }

// IsReady reports whether the cooldown has elapsed and the cost is affordable.
func (s *Spell) IsReady() bool {
	if s.Cooldown > 0 {
		return false
	}
	if s.economy != nil && s.Def.Cost > 0 && !s.economy.Affordable(s.Def.Cost) {
		return false
	}
	return true
}

// UpdateCooldown decrements the cooldown by dt, floored at zero.
func (s *Spell) UpdateCooldown(dt float64) {
	s.Cooldown = math.Max(0, s.Cooldown-dt)
}

// BaseCooldown returns the cooldown applied when a cast completes.
func (s *Spell) BaseCooldown() float64 {
	if s.Def.HastedCooldown {
		return s.Def.Cooldown / (1 + s.caster.Haste()/100)
	}
	return s.Def.Cooldown
}

// Cast resolves the spell: it triggers the global cooldown, rolls and records
// damage when doDamage is set, runs OnCrit hooks on a critical hit, resets the
// cooldown, and completes the cast.
//
// Precondition: the caster has joined an encounter.
// Postcondition: Cooldown == BaseCooldown() before OnCastComplete hooks run.
func (s *Spell) Cast(doDamage bool) (Hit, error) {
	enc := s.caster.Encounter()
	if enc == nil {
		return Hit{}, ErrNoEncounter
	}
	haste := 1 + s.caster.Haste()/100
	if !s.Def.OffGCD {
		enc.TriggerGCD(math.Max(s.Def.CastTime, GCD) / haste)
	} else if s.Def.CastTime > 0 {
		enc.TriggerGCD(s.Def.CastTime / haste)
	}

	var hit Hit
	if doDamage && s.damage != nil {
		hit = Strike(s.caster, s.ID(), *s.damage, s.Def.TargetCap, s.CritBonus)
	}
	enc.Trace().Emit(trace.Event{Time: enc.Now(), Kind: trace.KindCast, Subject: s.ID(), Amount: hit.Amount})
	if hit.Crit {
		for _, fn := range s.onCrit {
			fn(s)
		}
	}

	s.Cooldown = s.BaseCooldown()
	s.complete()
	return hit, nil
}

func (s *Spell) complete() {
	if s.economy != nil {
		s.economy.GainPrimary(s.Def.Gain)
		switch {
		case s.Def.Cost > 0:
			s.economy.SpendSecondary(s.Def.Cost)
		case s.Def.Cost < 0:
			s.economy.GainSecondary(-s.Def.Cost)
		}
	}
	for _, fn := range s.onComplete {
		fn(s)
	}
}
