package spell

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/simfell/internal/game/dice"
)

// Def is the static definition of an ability, loaded from YAML.
type Def struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	Cooldown       float64 `yaml:"cooldown"`
	CastTime       float64 `yaml:"cast_time"`
	OffGCD         bool    `yaml:"off_gcd"`
	HastedCooldown bool    `yaml:"hasted_cooldown"`
	Damage         string  `yaml:"damage"`     // dice expression or "lo-hi"; empty = no direct damage
	TargetCap      int     `yaml:"target_cap"` // > 0 marks an area spell
	Gain           int     `yaml:"gain"`       // primary resource gained on completion
	Cost           int     `yaml:"cost"`       // secondary resource; negative = gained
	Internal       bool    `yaml:"internal"`   // cast by the archetype, never by a rotation
}

// Validate reports every problem with d, joined into one error.
func (d *Def) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown must be >= 0, got %v", d.Cooldown))
	}
	if d.CastTime < 0 {
		errs = append(errs, fmt.Errorf("cast_time must be >= 0, got %v", d.CastTime))
	}
	if d.TargetCap < 0 {
		errs = append(errs, fmt.Errorf("target_cap must be >= 0, got %d", d.TargetCap))
	}
	if d.Gain < 0 {
		errs = append(errs, fmt.Errorf("gain must be >= 0, got %d", d.Gain))
	}
	if d.Damage != "" {
		if _, err := dice.Parse(d.Damage); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("spell %q: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

// ParseDefs decodes a YAML sequence of spell definitions and validates each.
func ParseDefs(data []byte) ([]*Def, error) {
	var defs []*Def
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("parsing spell definitions: %w", err)
	}
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("spell %q: duplicate id", d.ID)
		}
		seen[d.ID] = true
	}
	return defs, nil
}
