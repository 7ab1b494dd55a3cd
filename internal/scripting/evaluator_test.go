package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/simfell/internal/rotation"
	"github.com/cory-johannsen/simfell/internal/scripting"
)

type fakeState struct {
	now, remaining float64
	enemies        int
	stats          map[string]float64
	resources      map[string]int
	talents        map[string]bool
	buffs, debuffs map[string]rotation.EffectView
	cooldowns      map[string]float64
}

func (s *fakeState) Now() float64       { return s.now }
func (s *fakeState) Remaining() float64 { return s.remaining }
func (s *fakeState) Enemies() int       { return s.enemies }
func (s *fakeState) Stat(name string) (float64, bool) {
	v, ok := s.stats[name]
	return v, ok
}
func (s *fakeState) Resource(name string) int             { return s.resources[name] }
func (s *fakeState) HasTalent(id string) bool             { return s.talents[id] }
func (s *fakeState) Buff(id string) rotation.EffectView   { return s.buffs[id] }
func (s *fakeState) Debuff(id string) rotation.EffectView { return s.debuffs[id] }
func (s *fakeState) Cooldown(id string) float64           { return s.cooldowns[id] }
func (s *fakeState) Ready(id string) bool                 { return s.cooldowns[id] <= 0 }

func state() *fakeState {
	return &fakeState{
		now: 12.5, remaining: 47.5, enemies: 3,
		stats:     map[string]float64{"haste": 14.5},
		resources: map[string]int{"winter_orbs": 2, "anima": 7},
		talents:   map[string]bool{"avalanche": true},
		buffs:     map[string]rotation.EffectView{"ice_blitz": {Active: true, Stacks: 1, Remaining: 6}},
		debuffs:   map[string]rotation.EffectView{"bursting_ice": {Active: true, Stacks: 2, Remaining: 1.5}},
		cooldowns: map[string]float64{"cold_snap": 3},
	}
}

func newEvaluator(t *testing.T) *scripting.Evaluator {
	t.Helper()
	e := scripting.NewEvaluator(zap.NewNop(), 0)
	t.Cleanup(e.Close)
	return e
}

func TestEvaluate_Helpers(t *testing.T) {
	e := newEvaluator(t)
	st := state()
	cases := map[string]bool{
		"time() == 12.5":                           true,
		"remaining() < 50":                         true,
		"enemies() >= 3":                           true,
		"stat('haste') > 14":                       true,
		"stat('luck') == nil":                      true,
		"resource('winter_orbs') >= 2":             true,
		"resource('anima') > 8":                    false,
		"talent('avalanche')":                      true,
		"talent('soulfrost_torrent')":              false,
		"buff_active('ice_blitz')":                 true,
		"buff_stacks('ice_blitz') == 1":            true,
		"buff_remaining('ice_blitz') > 5":          true,
		"not buff_active('wrath_of_winter')":       true,
		"debuff_active('bursting_ice')":            true,
		"debuff_stacks('bursting_ice') == 2":       true,
		"debuff_remaining('bursting_ice') < 2":     true,
		"cooldown('cold_snap') == 3":               true,
		"ready('cold_snap')":                       false,
		"ready('frost_bolt')":                      true,
		"enemies() > 1 and not ready('cold_snap')": true,
	}
	for cond, want := range cases {
		assert.Equal(t, want, e.Evaluate([]string{cond}, st), cond)
	}
}

func TestEvaluate_ConditionsAreANDed(t *testing.T) {
	e := newEvaluator(t)
	st := state()
	assert.True(t, e.Evaluate(nil, st))
	assert.True(t, e.Evaluate([]string{"true", "enemies() == 3"}, st))
	assert.False(t, e.Evaluate([]string{"true", "false"}, st))
}

func TestEvaluate_ErrorsAreFalseAndWarnOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := scripting.NewEvaluator(zap.New(core), 0)
	defer e.Close()
	st := state()

	assert.False(t, e.Evaluate([]string{"resource("}, st))
	assert.False(t, e.Evaluate([]string{"resource("}, st))
	assert.False(t, e.Evaluate([]string{"nosuch() > 1"}, st))
	assert.Equal(t, 2, logs.Len())
}

func TestEvaluate_RunawayConditionIsFalse(t *testing.T) {
	e := scripting.NewEvaluator(zap.NewNop(), 50)
	defer e.Close()
	assert.False(t, e.Evaluate([]string{"(function() while true do end end)()"}, state()))
	assert.True(t, e.Evaluate([]string{"time() > 0"}, state()), "budget resets between calls")
}

func TestEvaluate_ConditionsCannotModifyEnvironment(t *testing.T) {
	e := newEvaluator(t)
	st := state()
	for _, cond := range []string{
		"rawset(_G, 'time', nil) or true",
		"(function() time = nil end)() or true",
		"(function() _G.enemies = nil end)() or true",
		"(function() math.floor = nil end)() or true",
		"setmetatable(_G, nil) or true",
		"getmetatable('').__index or true",
	} {
		assert.False(t, e.Evaluate([]string{cond}, st), cond)
		assert.True(t, e.Evaluate([]string{"time() == 12.5", "enemies() == 3", "math.floor(1.5) == 1"}, st),
			"helpers intact after %q", cond)
	}
	assert.True(t, e.Evaluate([]string{"pcall(function() time = nil end) == false"}, st))
	assert.True(t, e.Evaluate([]string{"rawset == nil and setmetatable == nil and getmetatable == nil and setfenv == nil"}, st))
	assert.True(t, e.Evaluate([]string{"_G.time() == time()"}, st))
}

func TestCompile(t *testing.T) {
	e := newEvaluator(t)
	assert.NoError(t, e.Compile("resource('anima') >= 5"))
	assert.Error(t, e.Compile("resource('anima' >="))
}

func TestEvaluator_SatisfiesRotationContract(t *testing.T) {
	e := newEvaluator(t)
	var ev rotation.Evaluator = e
	assert.True(t, ev.Evaluate([]string{"true"}, state()))
}

func TestPropertyEvaluate_ResourceComparisons(t *testing.T) {
	e := newEvaluator(t)
	rapid.Check(t, func(rt *rapid.T) {
		orbs := rapid.IntRange(0, 5).Draw(rt, "orbs")
		need := rapid.IntRange(0, 5).Draw(rt, "need")
		st := state()
		st.resources["winter_orbs"] = orbs
		got := e.Evaluate([]string{"resource('winter_orbs') >= " + string(rune('0'+need))}, st)
		assert.Equal(rt, orbs >= need, got)
	})
}
