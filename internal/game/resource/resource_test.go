package resource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/simfell/internal/game/resource"
)

func TestCounter_GainCapsAtMax(t *testing.T) {
	c := resource.NewCounter("winter_orbs", 0, 5)
	assert.Equal(t, 0, c.Gain(7))
	assert.Equal(t, 5, c.Value())
	assert.Equal(t, 7, c.Gained())
	assert.Equal(t, 2, c.Wasted())
}

func TestCounter_OverflowResetsAndDiscardsExcess(t *testing.T) {
	c := resource.NewCounter("anima", 0, 9).WithOverflow(10)
	assert.Equal(t, 0, c.Gain(9))
	assert.Equal(t, 9, c.Value())
	assert.Equal(t, 1, c.Gain(3))
	assert.Equal(t, 0, c.Value())
	assert.Equal(t, 2, c.Wasted())
}

func TestCounter_SpendFloorsAtMin(t *testing.T) {
	c := resource.NewCounter("winter_orbs", 0, 5)
	c.Gain(1)
	assert.Equal(t, 1, c.Spend(2))
	assert.Equal(t, 0, c.Value())
	assert.Equal(t, 1, c.Spent())
	assert.False(t, c.Has(1))
	assert.Equal(t, 0, c.Spend(0))
}

func TestNewCounter_PanicsOnInvertedBounds(t *testing.T) {
	assert.Panics(t, func() { resource.NewCounter("x", 3, 1) })
}

func TestPool_OrderAndLookup(t *testing.T) {
	p := resource.NewPool(resource.NewCounter("anima", 0, 9), resource.NewCounter("winter_orbs", 0, 5))
	c, ok := p.Get("winter_orbs")
	require.True(t, ok)
	c.Gain(2)
	assert.Equal(t, 2, p.Value("winter_orbs"))
	assert.Equal(t, 0, p.Value("missing"))
	require.Len(t, p.All(), 2)
	assert.Equal(t, "anima", p.All()[0].Name())
}

func TestPropertyCounter_StaysInBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		max := rapid.IntRange(0, 10).Draw(rt, "max")
		threshold := rapid.IntRange(0, 12).Draw(rt, "threshold")
		c := resource.NewCounter("r", 0, max).WithOverflow(threshold)
		ops := rapid.SliceOfN(rapid.IntRange(-6, 6), 1, 50).Draw(rt, "ops")
		for _, n := range ops {
			if n >= 0 {
				c.Gain(n)
			} else {
				c.Spend(-n)
			}
			assert.GreaterOrEqual(rt, c.Value(), c.Min())
			assert.LessOrEqual(rt, c.Value(), c.Max())
		}
	})
}
