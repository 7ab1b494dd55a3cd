package sim

import "math"

// ResourceStats summarizes one resource counter over a run.
type ResourceStats struct {
	Name   string
	Final  int
	Gained int
	Spent  int
	Wasted int
}

// Result is the outcome of one engine run.
type Result struct {
	Seed        uint64
	DPS         float64
	TotalDamage float64
	Duration    float64
	Casts       int
	Abilities   []AbilityStats
	Resources   []ResourceStats
}

// Result snapshots the engine's accounting.
func (e *Engine) Result() Result {
	r := Result{
		DPS:         e.totalDamage / e.cfg.Duration,
		TotalDamage: e.totalDamage,
		Duration:    e.cfg.Duration,
		Casts:       e.casts,
		Abilities:   e.Breakdown(),
	}
	for _, c := range e.char.Resources().All() {
		r.Resources = append(r.Resources, ResourceStats{
			Name:   c.Name(),
			Final:  c.Value(),
			Gained: c.Gained(),
			Spent:  c.Spent(),
			Wasted: c.Wasted(),
		})
	}
	return r
}

// Summary aggregates DPS across runs.
type Summary struct {
	Iterations int
	Mean       float64
	Min        float64
	Max        float64
	StdDev     float64
}

// Summarize computes population statistics over dps.
//
// Postcondition: a zero Summary is returned for empty input.
func Summarize(dps []float64) Summary {
	if len(dps) == 0 {
		return Summary{}
	}
	s := Summary{Iterations: len(dps), Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range dps {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(len(dps))
	var sq float64
	for _, v := range dps {
		d := v - s.Mean
		sq += d * d
	}
	s.StdDev = math.Sqrt(sq / float64(len(dps)))
	return s
}
