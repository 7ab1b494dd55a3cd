package dice

// rppmResetWindow is the elapsed time, in seconds, after which an attempt
// stops accumulating and fails.
const rppmResetWindow = 30.0

// RPPM is a real-procs-per-minute gate. The chance of each attempt grows
// with the time since the previous attempt and with haste, so the long-run
// proc rate approaches PerMinute regardless of how often attempts happen.
//
// An RPPM belongs to one run and is not safe for concurrent use.
type RPPM struct {
	PerMinute float64
	last      float64
}

// NewRPPM creates a gate averaging perMinute procs per minute at zero haste.
//
// Precondition: perMinute > 0.
func NewRPPM(perMinute float64) *RPPM {
	return &RPPM{PerMinute: perMinute}
}

// Chance returns the proc chance in percent of an attempt after elapsed
// seconds at hastePercent haste. Elapsed times outside (0, 30) yield 0.
func (p *RPPM) Chance(elapsed, hastePercent float64) float64 {
	if elapsed <= 0 || elapsed >= rppmResetWindow {
		return 0
	}
	return p.PerMinute * elapsed / 60 * 100 * (1 + hastePercent/100)
}

// TryProc attempts a proc at time now, drawing from r only when the chance
// is positive.
//
// Postcondition: the next attempt measures elapsed time from now.
func (p *RPPM) TryProc(r *Roller, now, hastePercent float64) bool {
	elapsed := now - p.last
	p.last = now
	chance := p.Chance(elapsed, hastePercent)
	if chance <= 0 {
		return false
	}
	return r.Chance(chance)
}
