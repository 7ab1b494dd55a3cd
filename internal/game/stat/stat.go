// Package stat converts secondary stat points into effective percentages.
//
// Conversion applies tiered diminishing returns: each percentage breakpoint
// lowers the value of every further point. The inverse used when stats are
// grown incrementally is deliberately the flat, linear one; see PointsForPercent.
package stat

import "math"

// PercentPerPoint is the undiminished value of one stat point, in percent.
const PercentPerPoint = 0.21

// CritFloor is the inherent critical strike chance every character starts with.
const CritFloor = 5.0

var (
	breakpoints = [...]float64{10, 15, 20, 25, math.Inf(1)}
	multipliers = [...]float64{1.0, 0.9, 0.8, 0.7, 0.6}
)

// EffectivePercent converts points into an effective percentage.
//
// Points are consumed tier by tier. For each tier the remaining distance to the
// tier's breakpoint is converted into a point budget at the flat rate, and the
// points spent inside that budget contribute at the tier's multiplier. base
// seeds the accumulator without consuming points (crit uses CritFloor).
//
// Precondition: points >= 0; base >= 0.
// Postcondition: Returns a value >= base, non-decreasing in points.
func EffectivePercent(points, base float64) float64 {
	total := base
	used := 0.0
	for i, threshold := range breakpoints {
		if used >= points {
			break
		}
		required := threshold - total
		if required <= 0 {
			continue
		}
		spend := math.Min(points-used, required/PercentPerPoint)
		total += spend * PercentPerPoint * multipliers[i]
		used += spend
	}
	return total
}

// PointsForPercent returns the linear point count implied by an effective
// percentage: (value - 1) / PercentPerPoint.
//
// This is not the inverse of EffectivePercent. Incremental stat growth relies on
// this exact formula, so the two must stay asymmetric.
func PointsForPercent(value float64) float64 {
	return (value - 1) / PercentPerPoint
}

// FirstBreakpointPoints is the number of points that reach the first breakpoint
// from a zero base.
func FirstBreakpointPoints() float64 {
	return breakpoints[0] / PercentPerPoint
}
