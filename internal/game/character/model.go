// Package character defines the simulated character: stats and modifiers,
// talents, the spell book, the buff table, and archetype resources.
package character

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/simfell/internal/game/effect"
	"github.com/cory-johannsen/simfell/internal/game/resource"
	"github.com/cory-johannsen/simfell/internal/game/spell"
	"github.com/cory-johannsen/simfell/internal/game/stat"
)

// ErrUnknownTalent is returned by AddTalent for ids the archetype does not define.
var ErrUnknownTalent = errors.New("unknown talent")

// Stat identifies one of the character's stats.
type Stat int

const (
	MainStat Stat = iota
	Crit
	Expertise
	Haste
	Spirit
	CritPower
	numStats
)

var statNames = [numStats]string{"main_stat", "crit", "expertise", "haste", "spirit", "crit_power"}

func (s Stat) String() string {
	if s < 0 || s >= numStats {
		return fmt.Sprintf("Stat(%d)", int(s))
	}
	return statNames[s]
}

// ParseStat resolves a stat name such as "haste" or "main_stat".
func ParseStat(name string) (Stat, error) {
	for i, n := range statNames {
		if strings.EqualFold(n, name) {
			return Stat(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stat %q", name)
}

// Build is the configuration snapshot a character is created from. Secondary
// stats are given in points; MainStat is a raw value.
type Build struct {
	Archetype string
	MainStat  float64
	Crit      float64
	Expertise float64
	Haste     float64
	Spirit    float64
	Talents   []string
}

// Validate reports every negative stat.
func (b Build) Validate() error {
	var errs []error
	for name, v := range map[string]float64{
		"main_stat": b.MainStat, "crit": b.Crit, "expertise": b.Expertise,
		"haste": b.Haste, "spirit": b.Spirit,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %v", name, v))
		}
	}
	return errors.Join(errs...)
}

// Talent is a named, permanent character upgrade.
type Talent struct {
	ID    string
	Name  string
	Apply func(*Base) // may be nil for talents checked via HasTalent only
}

// Character is the capability set the engine and conditions read.
type Character interface {
	spell.Caster
	Archetype() string
	Spirit() float64
	Spell(id string) (*spell.Spell, bool)
	Spells() []*spell.Spell
	Buffs() *effect.Table
	HasTalent(id string) bool
	HasBuff(id string) bool
	Buff(id string) (*effect.Effect, bool)
	Talents() []string
	Resources() *resource.Pool
	SetEncounter(enc spell.Encounter)
}

// Base implements Character; archetypes embed it and add their own rules.
//
// Invariant: every base value except MainStat and CritPower is an effective
// percentage already past diminishing returns.
type Base struct {
	archetype  string
	base       [numStats]float64
	additive   [numStats]float64
	multiplier [numStats]float64
	damageMult float64

	spells     map[string]*spell.Spell
	spellOrder []string
	buffs      *effect.Table
	talentDefs map[string]Talent
	talents    []string
	resources  *resource.Pool
	enc        spell.Encounter
}

// NewBase converts b's points into effective stats.
//
// Postcondition: Crit() >= stat.CritFloor; CritPower() == 1.
func NewBase(b Build) *Base {
	c := &Base{
		archetype:  b.Archetype,
		spells:     make(map[string]*spell.Spell),
		buffs:      effect.NewTable(),
		talentDefs: make(map[string]Talent),
		resources:  resource.NewPool(),
	}
	c.base[MainStat] = b.MainStat
	c.base[Crit] = stat.EffectivePercent(b.Crit, stat.CritFloor)
	c.base[Expertise] = stat.EffectivePercent(b.Expertise, 0)
	c.base[Haste] = stat.EffectivePercent(b.Haste, 0)
	c.base[Spirit] = stat.EffectivePercent(b.Spirit, 0)
	c.base[CritPower] = 1
	return c
}

func (c *Base) Archetype() string { return c.archetype }

// Get returns (base + additive) × (1 + multiplier) for s.
func (c *Base) Get(s Stat) float64 {
	return (c.base[s] + c.additive[s]) * (1 + c.multiplier[s])
}

func (c *Base) MainStat() float64  { return c.Get(MainStat) }
func (c *Base) Crit() float64      { return c.Get(Crit) }
func (c *Base) Expertise() float64 { return c.Get(Expertise) }
func (c *Base) Haste() float64     { return c.Get(Haste) }
func (c *Base) Spirit() float64    { return c.Get(Spirit) }
func (c *Base) CritPower() float64 { return c.Get(CritPower) }

// DamageMultiplier returns 1 + the accumulated damage bonus.
func (c *Base) DamageMultiplier() float64 { return 1 + c.damageMult }

// UpdateStat grows s by delta points. MainStat and CritPower add delta
// directly. Every other stat is converted back to linear points, grown, and
// pushed through the tiered conversion again.
func (c *Base) UpdateStat(s Stat, delta float64) {
	switch s {
	case MainStat, CritPower:
		c.base[s] += delta
	default:
		points := stat.PointsForPercent(c.base[s])
		c.base[s] = stat.EffectivePercent(points+delta, 0)
	}
}

// AddModifier adds to the additive and multiplicative modifiers of s.
// Negative values remove a previously added modifier.
func (c *Base) AddModifier(s Stat, additive, multiplicative float64) {
	c.additive[s] += additive
	c.multiplier[s] += multiplicative
}

// AddDamageMultiplier adds delta (0.2 = +20%) to the damage bonus.
func (c *Base) AddDamageMultiplier(delta float64) {
	c.damageMult += delta
}

// DefineTalent makes a talent available to AddTalent.
func (c *Base) DefineTalent(t Talent) {
	c.talentDefs[t.ID] = t
}

// AddTalent grants a defined talent and applies its permanent effect.
// Adding a held talent again is a no-op.
//
// Postcondition: returns ErrUnknownTalent when id is not defined.
func (c *Base) AddTalent(id string) error {
	t, ok := c.talentDefs[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTalent, id)
	}
	if c.HasTalent(id) {
		return nil
	}
	c.talents = append(c.talents, id)
	if t.Apply != nil {
		t.Apply(c)
	}
	return nil
}

func (c *Base) HasTalent(id string) bool {
	for _, t := range c.talents {
		if t == id {
			return true
		}
	}
	return false
}

// Talents returns the held talent ids.
func (c *Base) Talents() []string {
	return append([]string(nil), c.talents...)
}

// AddSpell appends s to the spell book.
//
// Precondition: s was constructed with this character as its caster.
func (c *Base) AddSpell(s *spell.Spell) {
	if _, ok := c.spells[s.ID()]; !ok {
		c.spellOrder = append(c.spellOrder, s.ID())
	}
	c.spells[s.ID()] = s
}

func (c *Base) Spell(id string) (*spell.Spell, bool) {
	s, ok := c.spells[id]
	return s, ok
}

// Spells returns the spell book in the order spells were added.
func (c *Base) Spells() []*spell.Spell {
	out := make([]*spell.Spell, 0, len(c.spellOrder))
	for _, id := range c.spellOrder {
		out = append(out, c.spells[id])
	}
	return out
}

func (c *Base) Buffs() *effect.Table { return c.buffs }

func (c *Base) HasBuff(id string) bool { return c.buffs.Has(id) }

func (c *Base) Buff(id string) (*effect.Effect, bool) { return c.buffs.Get(id) }

func (c *Base) Resources() *resource.Pool { return c.resources }

// SetEncounter joins the character to enc and routes buff lifecycle events to
// the encounter's trace sink.
func (c *Base) SetEncounter(enc spell.Encounter) {
	c.enc = enc
	if enc != nil {
		c.buffs.Observe(enc, enc.Trace())
	}
}

func (c *Base) Encounter() spell.Encounter { return c.enc }
