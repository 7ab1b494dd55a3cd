package effect

import "github.com/cory-johannsen/simfell/internal/game/trace"

// Caster supplies the haste percentage that scales an effect's tick rate.
type Caster interface {
	Haste() float64
}

// Hooks are the lifecycle callbacks of an effect. Any hook may be nil.
type Hooks struct {
	OnApply  func(e *Effect)
	OnStack  func(e *Effect, oldStacks, newStacks int)
	OnTick   func(e *Effect)
	OnRemove func(e *Effect)
}

// Effect is one live (or not yet applied) instance of a timed effect.
//
// Invariant: 1 <= Stacks <= Def.StackCap() while active.
// Invariant: an active effect is registered in exactly one Table under Def.ID.
type Effect struct {
	Def            *Def
	RemainingTime  float64
	TickRate       float64 // effective, haste-scaled
	TimeToNextTick float64
	Stacks         int

	active bool
	table  *Table
	caster Caster
	hooks  Hooks
}

// New creates an unapplied effect for def.
//
// Precondition: def must not be nil.
func New(def *Def, hooks Hooks) *Effect {
	return &Effect{Def: def, hooks: hooks}
}

// ID returns the definition id.
func (e *Effect) ID() string { return e.Def.ID }

// Active reports whether e is registered and running.
func (e *Effect) Active() bool { return e.active }

// Caster returns the caster recorded at apply time.
func (e *Effect) Caster() Caster { return e.caster }

// Apply registers e in t. When t already holds an active instance with the
// same id, that instance is reapplied instead and returned; e is discarded.
//
// Precondition: t and c must be non-nil.
// Postcondition: t holds exactly one active effect with e.ID(), which is returned.
func (e *Effect) Apply(t *Table, c Caster) *Effect {
	if live, ok := t.Get(e.ID()); ok && live.active {
		live.Reapply()
		return live
	}
	e.table = t
	e.caster = c
	e.Stacks = 1
	e.setValues()
	e.active = true
	t.put(e)
	t.emit(trace.KindApply, e, float64(e.Stacks))
	if e.hooks.OnApply != nil {
		e.hooks.OnApply(e)
	}
	return e
}

// setValues resets the duration and the tick schedule.
func (e *Effect) setValues() {
	e.RemainingTime = e.Def.Duration
	if e.Def.TickRate > 0 {
		e.TickRate = e.Def.TickRate / (1 + e.haste()/100)
		e.TimeToNextTick = e.TickRate
		return
	}
	e.TickRate = 0
	e.TimeToNextTick = e.Def.Duration
}

func (e *Effect) haste() float64 {
	if e.caster == nil {
		return 0
	}
	return e.caster.Haste()
}

// Reapply adds one stack, bounded by the cap, and refreshes duration and tick
// schedule to their full values.
//
// Postcondition: Stacks <= Def.StackCap(); RemainingTime == Def.Duration.
func (e *Effect) Reapply() {
	old := e.Stacks
	if e.Stacks < e.Def.StackCap() {
		e.Stacks++
	}
	e.setValues()
	if e.table != nil {
		e.table.emit(trace.KindReapply, e, float64(e.Stacks))
	}
	if e.Stacks != old && e.hooks.OnStack != nil {
		e.hooks.OnStack(e, old, e.Stacks)
	}
}

// UpdateRemainingDuration advances e by dt. Every tick interval fully spanned by
// dt fires OnTick once, in order. An effect with a zero tick rate never ticks.
//
// Postcondition: if RemainingTime reached zero, e is removed and inactive.
func (e *Effect) UpdateRemainingDuration(dt float64) {
	for e.active && dt > 0 && e.RemainingTime > 0 {
		if dt < e.TimeToNextTick {
			e.TimeToNextTick -= dt
			e.RemainingTime -= dt
			break
		}
		step := e.TimeToNextTick
		dt -= step
		e.RemainingTime -= step
		if e.TickRate <= 0 {
			// Pure duration: the whole remainder was consumed.
			e.TimeToNextTick = e.RemainingTime
			continue
		}
		e.TimeToNextTick = e.TickRate
		e.table.emit(trace.KindTick, e, float64(e.Stacks))
		if e.hooks.OnTick != nil {
			e.hooks.OnTick(e)
		}
	}
	if e.active && e.RemainingTime <= 0 {
		e.Remove()
	}
}

// Remove zeroes the remaining time, evicts e from its table, and marks it
// inactive. Removing an inactive effect is a no-op.
func (e *Effect) Remove() {
	if !e.active {
		return
	}
	e.RemainingTime = 0
	e.active = false
	e.table.delete(e)
	e.table.emit(trace.KindRemove, e, 0)
	if e.hooks.OnRemove != nil {
		e.hooks.OnRemove(e)
	}
}
