// Package rime implements the Rime frost-mage archetype: anima builds toward
// winter orbs, which fuel the hardest-hitting spells.
package rime

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/simfell/internal/game/character"
	"github.com/cory-johannsen/simfell/internal/game/dice"
	"github.com/cory-johannsen/simfell/internal/game/effect"
	"github.com/cory-johannsen/simfell/internal/game/resource"
	"github.com/cory-johannsen/simfell/internal/game/spell"
	"github.com/cory-johannsen/simfell/internal/game/trace"
)

// Archetype is the registry name of Rime.
const Archetype = "rime"

// Resource counter names, as read by rotation conditions.
const (
	Anima       = "anima"
	WinterOrbs  = "winter_orbs"
	MaxAnima    = 9
	MaxOrbs     = 5
	animaToOrbs = 10
)

// Talent ids.
const (
	TalentAvalanche        = "avalanche"
	TalentSoulfrostTorrent = "soulfrost_torrent"
	TalentChillingFinesse  = "chilling_finesse"
)

const (
	avalancheCritPower       = 0.1
	spikesPerOrbGain         = 3
	swallowsPerColdSnap      = 5
	finesseBurstingReduction = 0.3
	finesseTorrentReduction  = 1.5
	soulfrostProcsPerMinute  = 1.5
)

// Rime is the frost-mage character. It implements spell.Economy: anima is the
// primary resource and winter orbs the secondary.
type Rime struct {
	*character.Base

	anima     *resource.Counter
	orbs      *resource.Counter
	spikes    *spell.Spell
	swallow   *spell.Spell
	soulfrost *dice.RPPM
	data      *content
	logger    *zap.Logger
}

// Register adds the Rime factory to reg.
func Register(reg *character.Registry) {
	reg.Register(Archetype, func(b character.Build, logger *zap.Logger) (character.Character, error) {
		return New(b, logger)
	})
}

// New builds a Rime with a fully bound spell book. Unknown talent ids are
// logged at warn and ignored.
//
// Precondition: logger must be non-nil.
func New(b character.Build, logger *zap.Logger) (*Rime, error) {
	data, err := loadContent()
	if err != nil {
		return nil, err
	}
	b.Archetype = Archetype
	r := &Rime{
		Base:      character.NewBase(b),
		anima:     resource.NewCounter(Anima, 0, MaxAnima).WithOverflow(animaToOrbs),
		orbs:      resource.NewCounter(WinterOrbs, 0, MaxOrbs),
		soulfrost: dice.NewRPPM(soulfrostProcsPerMinute),
		data:      data,
		logger:    logger,
	}
	r.Resources().Add(r.anima)
	r.Resources().Add(r.orbs)

	if err := r.configureSpellBook(); err != nil {
		return nil, err
	}
	r.defineTalents()
	for _, id := range b.Talents {
		if err := r.AddTalent(id); err != nil {
			if errors.Is(err, character.ErrUnknownTalent) {
				logger.Warn("ignoring unknown talent", zap.String("archetype", Archetype), zap.String("talent", id))
				continue
			}
			return nil, err
		}
	}
	return r, nil
}

func (r *Rime) configureSpellBook() error {
	for _, def := range r.data.spells {
		s, err := spell.New(def, r, append(r.spellOptions(def.ID), spell.WithEconomy(r), spell.OnCrit(r.onCrit))...)
		if err != nil {
			return fmt.Errorf("rime spell book: %w", err)
		}
		switch {
		case def.ID == "anima_spikes":
			r.spikes = s
		case def.ID == "frost_swallow":
			r.swallow = s
		case !def.Internal:
			r.AddSpell(s)
		}
	}
	if r.spikes == nil || r.swallow == nil {
		return errors.New("rime spell book: missing internal spells")
	}
	return nil
}

func (r *Rime) spellOptions(id string) []spell.Option {
	switch id {
	case "cold_snap":
		return []spell.Option{spell.OnCastComplete(r.completeColdSnap)}
	case "freezing_torrent":
		return []spell.Option{spell.OnCastComplete(func(*spell.Spell) { r.applyBuff("freezing_torrent") })}
	case "bursting_ice":
		return []spell.Option{spell.OnCastComplete(func(*spell.Spell) { r.applyDebuff("bursting_ice") })}
	case "dance_of_swallows":
		return []spell.Option{spell.OnCastComplete(func(*spell.Spell) { r.applyDebuff("dance_of_swallows") })}
	case "ice_blitz":
		return []spell.Option{spell.OnCastComplete(func(*spell.Spell) { r.applyBuff("ice_blitz") })}
	case "wrath_of_winter":
		return []spell.Option{spell.OnCastComplete(func(*spell.Spell) { r.applyBuff("wrath_of_winter") })}
	}
	return nil
}

func (r *Rime) defineTalents() {
	r.DefineTalent(character.Talent{ID: TalentAvalanche, Name: "Avalanche", Apply: func(b *character.Base) {
		b.AddModifier(character.CritPower, 0, avalancheCritPower)
	}})
	r.DefineTalent(character.Talent{ID: TalentSoulfrostTorrent, Name: "Soulfrost Torrent"})
	r.DefineTalent(character.Talent{ID: TalentChillingFinesse, Name: "Chilling Finesse"})
}

// Affordable reports whether cost winter orbs are available.
func (r *Rime) Affordable(cost int) bool { return r.orbs.Has(cost) }

func (r *Rime) GainPrimary(n int)    { r.GainAnima(n) }
func (r *Rime) SpendSecondary(n int) { r.LoseWinterOrbs(n) }
func (r *Rime) GainSecondary(n int)  { r.GainWinterOrbs(n) }

// AnimaValue returns the current anima.
func (r *Rime) AnimaValue() int { return r.anima.Value() }

// OrbValue returns the current winter orbs.
func (r *Rime) OrbValue() int { return r.orbs.Value() }

// GainAnima adds n anima. Reaching ten resets anima to zero and grants one
// winter orb. While Ice Blitz is up every anima gained fires Anima Spikes.
func (r *Rime) GainAnima(n int) {
	if n <= 0 {
		return
	}
	r.emitResource(Anima, float64(n))
	if r.anima.Gain(n) > 0 {
		r.GainWinterOrbs(1)
	}
	if r.HasBuff("ice_blitz") {
		for range n {
			r.castInternal(r.spikes)
		}
	}
}

// GainWinterOrbs adds n orbs, capped at MaxOrbs, and fires Anima Spikes three times.
func (r *Rime) GainWinterOrbs(n int) {
	if n <= 0 {
		return
	}
	r.emitResource(WinterOrbs, float64(n))
	r.orbs.Gain(n)
	for range spikesPerOrbGain {
		r.castInternal(r.spikes)
	}
}

// LoseWinterOrbs spends n orbs, floored at zero. With probability spirit% the
// full amount is refunded, capped at MaxOrbs.
func (r *Rime) LoseWinterOrbs(n int) {
	if n <= 0 {
		return
	}
	r.emitResource(WinterOrbs, -float64(n))
	r.orbs.Spend(n)
	enc := r.Encounter()
	if enc == nil {
		return
	}
	if enc.Roller().Chance(r.Spirit()) {
		r.orbs.Gain(n)
		enc.Trace().Emit(trace.Event{Time: enc.Now(), Kind: trace.KindResource, Subject: WinterOrbs, Amount: float64(n), Detail: "spirit refund"})
	}
}

func (r *Rime) emitResource(name string, amount float64) {
	if enc := r.Encounter(); enc != nil {
		enc.Trace().Emit(trace.Event{Time: enc.Now(), Kind: trace.KindResource, Subject: name, Amount: amount})
	}
}

func (r *Rime) castInternal(s *spell.Spell) {
	if _, err := s.Cast(true); err != nil {
		r.logger.Debug("internal cast skipped", zap.String("spell", s.ID()), zap.Error(err))
	}
}

// onCrit gives Soulfrost Torrent a real-PPM chance to empower Freezing Torrent.
func (r *Rime) onCrit(*spell.Spell) {
	if !r.HasTalent(TalentSoulfrostTorrent) {
		return
	}
	enc := r.Encounter()
	if enc == nil {
		return
	}
	if r.soulfrost.TryProc(enc.Roller(), enc.Now(), r.Haste()) {
		r.applyBuff("soulfrost")
	}
}

func (r *Rime) completeColdSnap(*spell.Spell) {
	if r.debuffActive("dance_of_swallows") {
		for range swallowsPerColdSnap {
			r.castInternal(r.swallow)
		}
	}
	if r.HasTalent(TalentChillingFinesse) {
		if ft, ok := r.Spell("freezing_torrent"); ok {
			ft.UpdateCooldown(finesseTorrentReduction)
		}
	}
}

func (r *Rime) debuffActive(id string) bool {
	enc := r.Encounter()
	return enc != nil && enc.Debuffs().Has(id)
}

func (r *Rime) applyBuff(id string) *effect.Effect {
	return effect.New(r.data.effects.MustGet(id), r.hooks(id)).Apply(r.Buffs(), r)
}

func (r *Rime) applyDebuff(id string) *effect.Effect {
	enc := r.Encounter()
	if enc == nil {
		return nil
	}
	return effect.New(r.data.effects.MustGet(id), r.hooks(id)).Apply(enc.Debuffs(), r)
}

// hooks returns the lifecycle rules of effect id.
func (r *Rime) hooks(id string) effect.Hooks {
	switch id {
	case "bursting_ice":
		return effect.Hooks{OnTick: func(e *effect.Effect) {
			r.tickDamage(e, 0)
			r.GainAnima(1)
		}}
	case "freezing_torrent":
		return effect.Hooks{OnTick: r.tickFreezingTorrent}
	case "ice_blitz", "wrath_of_winter":
		h := effect.Hooks{
			OnApply:  func(e *effect.Effect) { r.AddDamageMultiplier(e.Def.DamageBonus / 100) },
			OnRemove: func(e *effect.Effect) { r.AddDamageMultiplier(-e.Def.DamageBonus / 100) },
		}
		if id == "wrath_of_winter" {
			h.OnTick = func(*effect.Effect) { r.GainWinterOrbs(1) }
		}
		return h
	case "soulfrost":
		return effect.Hooks{
			OnApply:  func(e *effect.Effect) { r.adjustTorrentCrit(e.Def.CritBonus) },
			OnRemove: func(e *effect.Effect) { r.adjustTorrentCrit(-e.Def.CritBonus) },
		}
	}
	return effect.Hooks{}
}

func (r *Rime) tickFreezingTorrent(e *effect.Effect) {
	bonus := 0.0
	if ft, ok := r.Spell("freezing_torrent"); ok {
		bonus = ft.CritBonus
	}
	r.tickDamage(e, bonus)
	r.GainAnima(1)
	if r.debuffActive("dance_of_swallows") {
		r.castInternal(r.swallow)
	}
	if r.HasTalent(TalentChillingFinesse) {
		if bi, ok := r.Spell("bursting_ice"); ok {
			bi.UpdateCooldown(finesseBurstingReduction)
		}
	}
}

func (r *Rime) tickDamage(e *effect.Effect, critBonus float64) {
	expr, ok := r.data.tickDamage[e.ID()]
	if !ok || r.Encounter() == nil {
		return
	}
	spell.Strike(r, e.ID(), expr, 0, critBonus)
}

func (r *Rime) adjustTorrentCrit(delta float64) {
	if ft, ok := r.Spell("freezing_torrent"); ok {
		ft.CritBonus += delta
	}
}
