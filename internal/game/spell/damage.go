package spell

import (
	"math"

	"github.com/cory-johannsen/simfell/internal/game/dice"
	"github.com/cory-johannsen/simfell/internal/game/trace"
)

// Hit is the outcome of one damage event.
type Hit struct {
	Amount  float64 // total across all targets
	Crit    bool
	Targets int
}

// Scale converts a rolled value into damage for c:
// roll × MainStat/1000 × (1 + Expertise/100) × DamageMultiplier.
func Scale(c Caster, roll float64) float64 {
	return roll * c.MainStat() / 1000 * (1 + c.Expertise()/100) * c.DamageMultiplier()
}

// AreaFactor returns the per-target damage factor for an area hit on targets
// enemies with the given cap. Up to the cap every target takes full damage.
func AreaFactor(targetCap, targets int) float64 {
	if targetCap <= 0 || targets <= targetCap {
		return 1
	}
	return math.Sqrt(float64(targetCap) / float64(targets))
}

// Strike rolls expr for c, applies crit and area scaling, and records the
// damage on the caster's encounter under sourceID.
//
// Precondition: c.Encounter() is non-nil.
// Postcondition: Hit.Amount >= 0; a crit multiplies damage by 1 + CritPower.
func Strike(c Caster, sourceID string, expr dice.Expression, targetCap int, critBonus float64) Hit {
	enc := c.Encounter()
	roller := enc.Roller()
	amount := Scale(c, float64(roller.Roll(expr).Total()))
	crit := roller.Chance(c.Crit() + critBonus)
	if crit {
		amount *= 1 + c.CritPower()
	}
	targets := 1
	if targetCap > 0 {
		targets = max(enc.Enemies(), 1)
		amount = amount * AreaFactor(targetCap, targets) * float64(targets)
	}
	enc.DealDamage(sourceID, amount, crit)
	if crit {
		enc.Trace().Emit(trace.Event{Time: enc.Now(), Kind: trace.KindCrit, Subject: sourceID, Amount: amount})
	}
	return Hit{Amount: amount, Crit: crit, Targets: targets}
}
