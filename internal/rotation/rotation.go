// Package rotation defines the action priority list and the contract used to
// decide whether an action's conditions currently hold.
package rotation

import (
	"errors"
	"fmt"
	"strings"
)

// Action is one entry of a priority list. Name has the form
// "category/ability_id", e.g. "spell/frost_bolt".
type Action struct {
	Name       string   `yaml:"name" mapstructure:"name"`
	Conditions []string `yaml:"conditions,omitempty" mapstructure:"conditions"`
}

// ParseName splits a "category/ability" action name.
//
// Postcondition: both parts are non-empty, or an error is returned.
func ParseName(name string) (category, ability string, err error) {
	category, ability, ok := strings.Cut(strings.TrimSpace(name), "/")
	if !ok || category == "" || ability == "" || strings.Contains(ability, "/") {
		return "", "", fmt.Errorf("action name %q must be category/ability", name)
	}
	return strings.ToLower(category), strings.ToLower(ability), nil
}

// AbilityID returns the ability part of the name, or "" for malformed names.
func (a Action) AbilityID() string {
	_, id, err := ParseName(a.Name)
	if err != nil {
		return ""
	}
	return id
}

// List is an ordered priority list; earlier entries win.
type List []Action

// Validate reports every malformed action name.
func (l List) Validate() error {
	var errs []error
	for i, a := range l {
		if _, _, err := ParseName(a.Name); err != nil {
			errs = append(errs, fmt.Errorf("action %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// EffectView is a read-only snapshot of a buff or debuff.
type EffectView struct {
	Active    bool
	Stacks    int
	Remaining float64
}

// State is the read-only view of a running simulation that conditions are
// evaluated against.
type State interface {
	Now() float64
	Remaining() float64
	Enemies() int
	Stat(name string) (float64, bool)
	Resource(name string) int
	HasTalent(id string) bool
	Buff(id string) EffectView
	Debuff(id string) EffectView
	Cooldown(id string) float64
	Ready(id string) bool
}

// Evaluator decides whether every condition of an action holds. It must not
// mutate anything reachable from st.
type Evaluator interface {
	Evaluate(conditions []string, st State) bool
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(conditions []string, st State) bool

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(conditions []string, st State) bool { return f(conditions, st) }

// Always is an Evaluator that permits every action.
var Always Evaluator = EvaluatorFunc(func([]string, State) bool { return true })
