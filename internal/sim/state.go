package sim

import (
	"github.com/cory-johannsen/simfell/internal/game/character"
	"github.com/cory-johannsen/simfell/internal/game/effect"
	"github.com/cory-johannsen/simfell/internal/rotation"
)

// stateView exposes the engine to condition evaluators without granting
// write access.
type stateView struct {
	e *Engine
}

var _ rotation.State = stateView{}

func (v stateView) Now() float64 { return v.e.time }

func (v stateView) Remaining() float64 {
	r := v.e.cfg.Duration - v.e.time
	if r < 0 {
		return 0
	}
	return r
}

func (v stateView) Enemies() int { return v.e.cfg.Enemies }

func (v stateView) Stat(name string) (float64, bool) {
	s, err := character.ParseStat(name)
	if err != nil {
		return 0, false
	}
	c := v.e.char
	switch s {
	case character.MainStat:
		return c.MainStat(), true
	case character.Crit:
		return c.Crit(), true
	case character.Expertise:
		return c.Expertise(), true
	case character.Haste:
		return c.Haste(), true
	case character.Spirit:
		return c.Spirit(), true
	case character.CritPower:
		return c.CritPower(), true
	}
	return 0, false
}

func (v stateView) Resource(name string) int { return v.e.char.Resources().Value(name) }

func (v stateView) HasTalent(id string) bool { return v.e.char.HasTalent(id) }

func (v stateView) Buff(id string) rotation.EffectView {
	eff, _ := v.e.char.Buff(id)
	return viewOf(eff)
}

func (v stateView) Debuff(id string) rotation.EffectView {
	eff, _ := v.e.debuffs.Get(id)
	return viewOf(eff)
}

func (v stateView) Cooldown(id string) float64 {
	if sp, ok := v.e.char.Spell(id); ok {
		return sp.Cooldown
	}
	return 0
}

func (v stateView) Ready(id string) bool {
	sp, ok := v.e.char.Spell(id)
	return ok && sp.IsReady()
}

func viewOf(eff *effect.Effect) rotation.EffectView {
	if eff == nil || !eff.Active() {
		return rotation.EffectView{}
	}
	return rotation.EffectView{Active: true, Stacks: eff.Stacks, Remaining: eff.RemainingTime}
}
