// Package dice provides the randomness abstraction and damage-roll types used
// by spell resolution.
package dice

import "fmt"

// RollResult holds the audit trail for a single damage roll.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // expression as written, e.g. "2106-2574" or "2d6+3"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string, e.g. "2d6+3 → [4 5] +3 = 12".
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for a simulation run.
//
// A run draws every random value (damage, crit, resource resistance) from one
// Source. Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random value in [0, 1).
	Float64() float64
}

// Chance reports whether a uniform draw in [0, 100) falls below percent.
//
// Postcondition: percent <= 0 never succeeds; percent >= 100 always succeeds.
func Chance(src Source, percent float64) bool {
	return src.Float64()*100 < percent
}
