// Package effect implements timed, stackable buffs and debuffs.
package effect

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind distinguishes effects owned by a character from effects owned by the encounter.
type Kind string

const (
	KindBuff   Kind = "buff"
	KindDebuff Kind = "debuff"
)

// Def is the static definition of a timed effect, loaded from YAML.
type Def struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Kind        Kind    `yaml:"kind"`
	Duration    float64 `yaml:"duration"`
	TickRate    float64 `yaml:"tick_rate"`  // 0 = no periodic effect
	MaxStacks   int     `yaml:"max_stacks"` // 0 is treated as 1
	DamageBonus float64 `yaml:"damage_bonus"`
	CritBonus   float64 `yaml:"crit_bonus"`
	TickDamage  string  `yaml:"tick_damage"` // damage expression rolled on each tick
}

// StackCap returns the effective maximum stack count.
//
// Postcondition: Returns a value >= 1.
func (d *Def) StackCap() int {
	if d.MaxStacks < 1 {
		return 1
	}
	return d.MaxStacks
}

// Validate reports every problem with d, joined into one error.
func (d *Def) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Kind != KindBuff && d.Kind != KindDebuff {
		errs = append(errs, fmt.Errorf("kind must be %q or %q, got %q", KindBuff, KindDebuff, d.Kind))
	}
	if d.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be > 0, got %v", d.Duration))
	}
	if d.TickRate < 0 {
		errs = append(errs, fmt.Errorf("tick_rate must be >= 0, got %v", d.TickRate))
	}
	if d.MaxStacks < 0 {
		errs = append(errs, fmt.Errorf("max_stacks must be >= 0, got %d", d.MaxStacks))
	}
	if len(errs) > 0 {
		return fmt.Errorf("effect %q: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

// Registry holds all known Defs keyed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Def) {
	r.defs[def.ID] = def
}

// Get returns the Def for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// MustGet returns the Def for id and panics when it is missing. Archetypes use
// it against their embedded definitions, where a miss is a build defect.
func (r *Registry) MustGet(id string) *Def {
	d, ok := r.Get(id)
	if !ok {
		panic("effect: no definition for " + id)
	}
	return d
}

// ParseDefs decodes a YAML sequence of effect definitions and validates each.
//
// Postcondition: Returns every definition, or an error naming the first invalid one.
func ParseDefs(data []byte) ([]*Def, error) {
	var defs []*Def
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("parsing effect definitions: %w", err)
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return defs, nil
}
