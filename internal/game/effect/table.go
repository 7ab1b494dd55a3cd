package effect

import "github.com/cory-johannsen/simfell/internal/game/trace"

// Clock reports the current simulated time.
type Clock interface {
	Now() float64
}

// Table owns the active effects of one owner, keyed by effect id.
//
// Iteration follows insertion order so updates are reproducible. A Table is
// not safe for concurrent use; a simulation run owns it exclusively.
type Table struct {
	effects map[string]*Effect
	order   []string
	clock   Clock
	sink    trace.Sink
}

// NewTable creates an empty Table with no observer.
func NewTable() *Table {
	return &Table{effects: make(map[string]*Effect), sink: trace.Nop()}
}

// Observe routes lifecycle events to sink, stamped with clock's time.
// A nil sink restores the no-op sink.
func (t *Table) Observe(clock Clock, sink trace.Sink) {
	if sink == nil {
		sink = trace.Nop()
	}
	t.clock = clock
	t.sink = sink
}

// Get returns the effect registered under id.
func (t *Table) Get(id string) (*Effect, bool) {
	e, ok := t.effects[id]
	return e, ok
}

// Has reports whether an effect with id is registered.
func (t *Table) Has(id string) bool {
	_, ok := t.effects[id]
	return ok
}

// Len returns the number of registered effects.
func (t *Table) Len() int { return len(t.order) }

// All returns the registered effects in insertion order.
func (t *Table) All() []*Effect {
	out := make([]*Effect, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.effects[id])
	}
	return out
}

// Update advances every effect registered at call time by dt. Effects applied
// by hooks during the update start counting on the next update.
func (t *Table) Update(dt float64) {
	for _, e := range t.All() {
		e.UpdateRemainingDuration(dt)
	}
}

// Remove removes the effect registered under id, if any.
func (t *Table) Remove(id string) {
	if e, ok := t.effects[id]; ok {
		e.Remove()
	}
}

func (t *Table) put(e *Effect) {
	if _, ok := t.effects[e.ID()]; !ok {
		t.order = append(t.order, e.ID())
	}
	t.effects[e.ID()] = e
}

func (t *Table) delete(e *Effect) {
	if cur, ok := t.effects[e.ID()]; !ok || cur != e {
		return
	}
	delete(t.effects, e.ID())
	for i, id := range t.order {
		if id == e.ID() {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *Table) emit(kind trace.Kind, e *Effect, amount float64) {
	now := 0.0
	if t.clock != nil {
		now = t.clock.Now()
	}
	t.sink.Emit(trace.Event{Time: now, Kind: kind, Subject: e.ID(), Amount: amount})
}
