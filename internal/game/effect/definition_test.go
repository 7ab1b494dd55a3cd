package effect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/simfell/internal/game/effect"
)

const sampleDefs = `
- id: ice_blitz
  name: Ice Blitz
  kind: buff
  duration: 20
  damage_bonus: 20
- id: bursting_ice
  name: Bursting Ice
  kind: debuff
  duration: 3
  tick_rate: 0.5
  tick_damage: 495-605
`

func TestParseDefs(t *testing.T) {
	defs, err := effect.ParseDefs([]byte(sampleDefs))
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "ice_blitz", defs[0].ID)
	assert.Equal(t, 20.0, defs[0].DamageBonus)
	assert.Equal(t, 1, defs[0].StackCap())
	assert.Equal(t, effect.KindDebuff, defs[1].Kind)
	assert.Equal(t, 0.5, defs[1].TickRate)
}

func TestParseDefs_RejectsUnknownFields(t *testing.T) {
	_, err := effect.ParseDefs([]byte("- id: x\n  kind: buff\n  duration: 1\n  bogus: 2\n"))
	assert.Error(t, err)
}

func TestParseDefs_ValidatesEveryField(t *testing.T) {
	_, err := effect.ParseDefs([]byte("- id: x\n  kind: aura\n  duration: 0\n  tick_rate: -1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind")
	assert.Contains(t, err.Error(), "duration")
	assert.Contains(t, err.Error(), "tick_rate")
}

func TestRegistry(t *testing.T) {
	defs, err := effect.ParseDefs([]byte(sampleDefs))
	require.NoError(t, err)
	reg := effect.NewRegistry()
	for _, d := range defs {
		reg.Register(d)
	}
	d, ok := reg.Get("bursting_ice")
	require.True(t, ok)
	assert.Equal(t, effect.KindDebuff, d.Kind)
	_, ok = reg.Get("ice_blitz")
	assert.True(t, ok)
	assert.Panics(t, func() { reg.MustGet("missing") })
}
