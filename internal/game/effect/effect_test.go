package effect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/simfell/internal/game/effect"
	"github.com/cory-johannsen/simfell/internal/game/trace"
)

type haste float64

func (h haste) Haste() float64 { return float64(h) }

func dot(duration, tick float64, maxStacks int) *effect.Def {
	return &effect.Def{ID: "bursting_ice", Kind: effect.KindDebuff, Duration: duration, TickRate: tick, MaxStacks: maxStacks}
}

func TestApply_RegistersActiveInstance(t *testing.T) {
	tbl := effect.NewTable()
	e := effect.New(dot(3, 0.5, 1), effect.Hooks{}).Apply(tbl, haste(0))

	assert.True(t, e.Active())
	assert.True(t, tbl.Has("bursting_ice"))
	assert.Equal(t, 1, e.Stacks)
	assert.Equal(t, 3.0, e.RemainingTime)
	assert.Equal(t, 0.5, e.TimeToNextTick)
}

func TestApply_HasteScalesTickRate(t *testing.T) {
	tbl := effect.NewTable()
	e := effect.New(dot(20, 5, 1), effect.Hooks{}).Apply(tbl, haste(25))
	assert.InDelta(t, 4.0, e.TickRate, 1e-12)
	assert.InDelta(t, 4.0, e.TimeToNextTick, 1e-12)
}

func TestApply_ZeroTickRate_PureDuration(t *testing.T) {
	tbl := effect.NewTable()
	ticks := 0
	def := &effect.Def{ID: "ice_blitz", Kind: effect.KindBuff, Duration: 20}
	e := effect.New(def, effect.Hooks{OnTick: func(*effect.Effect) { ticks++ }}).Apply(tbl, haste(0))
	assert.Equal(t, 20.0, e.TimeToNextTick)

	e.UpdateRemainingDuration(19.5)
	assert.True(t, e.Active())
	e.UpdateRemainingDuration(1)
	assert.False(t, e.Active())
	assert.Equal(t, 0, ticks)
	assert.Equal(t, 0.0, e.RemainingTime)
}

func TestApply_DuplicateDelegatesToReapply(t *testing.T) {
	tbl := effect.NewTable()
	def := dot(20, 5, 3)
	first := effect.New(def, effect.Hooks{}).Apply(tbl, haste(0))
	second := effect.New(def, effect.Hooks{}).Apply(tbl, haste(0))

	assert.Same(t, first, second)
	assert.False(t, effect.New(def, effect.Hooks{}).Active())
	assert.Equal(t, 2, first.Stacks)
	assert.Equal(t, 1, tbl.Len())
}

func TestReapply_AtTimeOne_ResetsScheduleAndStacks(t *testing.T) {
	tbl := effect.NewTable()
	def := dot(20, 5, 3)
	e := effect.New(def, effect.Hooks{}).Apply(tbl, haste(0))

	tbl.Update(1)
	require.Equal(t, 19.0, e.RemainingTime)
	require.Equal(t, 4.0, e.TimeToNextTick)

	effect.New(def, effect.Hooks{}).Apply(tbl, haste(0))
	assert.Equal(t, 20.0, e.RemainingTime)
	assert.Equal(t, 5.0, e.TimeToNextTick)
	assert.Equal(t, 2, e.Stacks)
}

func TestReapply_AtCap_OnlyRefreshes(t *testing.T) {
	tbl := effect.NewTable()
	stackCalls := 0
	e := effect.New(dot(20, 5, 1), effect.Hooks{
		OnStack: func(*effect.Effect, int, int) { stackCalls++ },
	}).Apply(tbl, haste(0))
	tbl.Update(7)
	e.Reapply()
	assert.Equal(t, 1, e.Stacks)
	assert.Equal(t, 20.0, e.RemainingTime)
	assert.Equal(t, 0, stackCalls)
}

func TestUpdate_FiresMultipleTicksInOrder(t *testing.T) {
	tbl := effect.NewTable()
	var at []float64
	var e *effect.Effect
	e = effect.New(dot(3, 0.5, 1), effect.Hooks{
		OnTick: func(x *effect.Effect) { at = append(at, x.RemainingTime) },
	}).Apply(tbl, haste(0))

	e.UpdateRemainingDuration(1.5)
	assert.Equal(t, []float64{2.5, 2.0, 1.5}, at)
	assert.True(t, e.Active())
}

func TestRemove_IsIdempotent(t *testing.T) {
	tbl := effect.NewTable()
	removed := 0
	e := effect.New(dot(3, 0.5, 1), effect.Hooks{
		OnRemove: func(*effect.Effect) { removed++ },
	}).Apply(tbl, haste(0))

	e.Remove()
	e.Remove()
	tbl.Remove("bursting_ice")
	assert.Equal(t, 1, removed)
	assert.False(t, tbl.Has("bursting_ice"))
	assert.Equal(t, 0.0, e.RemainingTime)
}

func TestRemove_StaleInstanceDoesNotEvictReplacement(t *testing.T) {
	tbl := effect.NewTable()
	def := dot(3, 0, 1)
	old := effect.New(def, effect.Hooks{}).Apply(tbl, haste(0))
	old.Remove()
	fresh := effect.New(def, effect.Hooks{}).Apply(tbl, haste(0))
	old.Remove()
	got, ok := tbl.Get("bursting_ice")
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestTable_PreservesInsertionOrder(t *testing.T) {
	tbl := effect.NewTable()
	for _, id := range []string{"c", "a", "b"} {
		effect.New(&effect.Def{ID: id, Kind: effect.KindBuff, Duration: 5}, effect.Hooks{}).Apply(tbl, haste(0))
	}
	var ids []string
	for _, e := range tbl.All() {
		ids = append(ids, e.ID())
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestTable_ObserveEmitsLifecycle(t *testing.T) {
	tbl := effect.NewTable()
	rec := &trace.Recorder{}
	tbl.Observe(nil, rec)
	def := dot(1, 0.5, 2)
	effect.New(def, effect.Hooks{}).Apply(tbl, haste(0))
	effect.New(def, effect.Hooks{}).Apply(tbl, haste(0))
	tbl.Update(2)

	assert.Equal(t, 1, rec.Count(trace.KindApply, "bursting_ice"))
	assert.Equal(t, 1, rec.Count(trace.KindReapply, "bursting_ice"))
	assert.Equal(t, 2, rec.Count(trace.KindTick, "bursting_ice"))
	assert.Equal(t, 1, rec.Count(trace.KindRemove, "bursting_ice"))
}

func TestPropertyStacks_NeverExceedCap(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxStacks := rapid.IntRange(0, 5).Draw(rt, "max_stacks")
		ops := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 40).Draw(rt, "ops")
		tbl := effect.NewTable()
		def := dot(10, 1, maxStacks)
		for _, op := range ops {
			switch op {
			case 0:
				effect.New(def, effect.Hooks{}).Apply(tbl, haste(0))
			case 1:
				if e, ok := tbl.Get(def.ID); ok {
					e.Reapply()
				}
			case 2:
				tbl.Update(0.75)
			}
			if e, ok := tbl.Get(def.ID); ok {
				assert.LessOrEqual(rt, e.Stacks, def.StackCap())
				assert.GreaterOrEqual(rt, e.Stacks, 1)
			}
			assert.LessOrEqual(rt, tbl.Len(), 1)
		}
	})
}

func TestPropertyTicks_CompleteInOneUpdate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tick := rapid.SampledFrom([]float64{0.25, 0.5, 1, 2, 4}).Draw(rt, "tick")
		n := rapid.IntRange(1, 40).Draw(rt, "n")
		duration := tick * float64(n)
		ticks := 0
		tbl := effect.NewTable()
		e := effect.New(dot(duration, tick, 1), effect.Hooks{
			OnTick: func(*effect.Effect) { ticks++ },
		}).Apply(tbl, haste(0))

		e.UpdateRemainingDuration(duration + 0.01)
		assert.Equal(rt, n, ticks)
		assert.False(rt, e.Active())
		assert.Equal(rt, 0.0, e.RemainingTime)
		assert.False(rt, tbl.Has(e.ID()))
	})
}

func TestPropertyTable_OneEntryPerID(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "c"}), 1, 30).Draw(rt, "ids")
		tbl := effect.NewTable()
		for _, id := range ids {
			effect.New(&effect.Def{ID: id, Kind: effect.KindDebuff, Duration: 3, MaxStacks: 2}, effect.Hooks{}).Apply(tbl, haste(0))
			seen := map[string]int{}
			for _, e := range tbl.All() {
				seen[e.ID()]++
			}
			for id, n := range seen {
				assert.Equal(rt, 1, n, "id %s", id)
			}
		}
	})
}
