// Package resource implements the bounded integer counters archetypes spend
// and gain while casting.
package resource

import "fmt"

// Counter is a bounded integer resource.
//
// Invariant: Min() <= Value() <= Max().
type Counter struct {
	name      string
	min, max  int
	value     int
	threshold int // 0 = no overflow conversion

	gained, spent, wasted int
}

// NewCounter creates a counter starting at min.
//
// Precondition: min <= max.
func NewCounter(name string, min, max int) *Counter {
	if min > max {
		panic(fmt.Sprintf("resource: counter %q has min %d > max %d", name, min, max))
	}
	return &Counter{name: name, min: min, max: max, value: min}
}

// WithOverflow makes the counter convert: when a gain brings the raw value to
// threshold or beyond, the value resets to Min() and Gain reports one overflow.
// Any excess beyond the threshold is discarded.
func (c *Counter) WithOverflow(threshold int) *Counter {
	c.threshold = threshold
	return c
}

func (c *Counter) Name() string { return c.name }
func (c *Counter) Value() int   { return c.value }
func (c *Counter) Min() int     { return c.min }
func (c *Counter) Max() int     { return c.max }

// Gained returns the total units credited over the counter's lifetime.
func (c *Counter) Gained() int { return c.gained }

// Spent returns the total units debited over the counter's lifetime.
func (c *Counter) Spent() int { return c.spent }

// Wasted returns the units lost to the maximum cap or to overflow.
func (c *Counter) Wasted() int { return c.wasted }

// Gain adds n and returns the number of overflow conversions (0 or 1).
//
// Precondition: n >= 0.
// Postcondition: Min() <= Value() <= Max().
func (c *Counter) Gain(n int) int {
	if n <= 0 {
		return 0
	}
	c.gained += n
	c.value += n
	if c.threshold > 0 && c.value >= c.threshold {
		c.wasted += c.value - c.threshold
		c.value = c.min
		return 1
	}
	if c.value > c.max {
		c.wasted += c.value - c.max
		c.value = c.max
	}
	return 0
}

// Spend removes up to n units and returns how many were actually removed.
// The value never falls below Min().
//
// Precondition: n >= 0.
func (c *Counter) Spend(n int) int {
	if n <= 0 {
		return 0
	}
	taken := n
	if c.value-taken < c.min {
		taken = c.value - c.min
	}
	c.value -= taken
	c.spent += taken
	return taken
}

// Has reports whether at least n units are available.
func (c *Counter) Has(n int) bool { return c.value >= n }

// Pool is an ordered set of named counters owned by one character.
type Pool struct {
	counters map[string]*Counter
	order    []string
}

// NewPool returns a pool holding counters in the given order.
func NewPool(counters ...*Counter) *Pool {
	p := &Pool{counters: make(map[string]*Counter, len(counters))}
	for _, c := range counters {
		p.Add(c)
	}
	return p
}

// Add registers c, replacing any counter with the same name.
func (p *Pool) Add(c *Counter) {
	if _, ok := p.counters[c.name]; !ok {
		p.order = append(p.order, c.name)
	}
	p.counters[c.name] = c
}

// Get returns the counter with name.
func (p *Pool) Get(name string) (*Counter, bool) {
	c, ok := p.counters[name]
	return c, ok
}

// Value returns the value of the named counter, or 0 when it does not exist.
func (p *Pool) Value(name string) int {
	if c, ok := p.counters[name]; ok {
		return c.value
	}
	return 0
}

// All returns the counters in registration order.
func (p *Pool) All() []*Counter {
	out := make([]*Counter, 0, len(p.order))
	for _, n := range p.order {
		out = append(out, p.counters[n])
	}
	return out
}
