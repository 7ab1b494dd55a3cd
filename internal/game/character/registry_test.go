package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/simfell/internal/game/character"
)

func TestRegistry_BuildUnknownArchetype(t *testing.T) {
	reg := character.NewRegistry()
	_, err := reg.Build(character.Build{Archetype: "pyre"}, zap.NewNop())
	assert.ErrorIs(t, err, character.ErrUnknownArchetype)
}

func TestRegistry_BuildRejectsNegativeStats(t *testing.T) {
	reg := character.NewRegistry()
	called := false
	reg.Register("plain", func(b character.Build, _ *zap.Logger) (character.Character, error) {
		called = true
		return character.NewBase(b), nil
	})
	_, err := reg.Build(character.Build{Archetype: "plain", Haste: -5}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "haste")
	assert.False(t, called)
}

func TestRegistry_BuildCopiesTalents(t *testing.T) {
	reg := character.NewRegistry()
	reg.Register("plain", func(b character.Build, _ *zap.Logger) (character.Character, error) {
		b.Talents[0] = "mutated"
		return character.NewBase(b), nil
	})
	talents := []string{"original"}
	_, err := reg.Build(character.Build{Archetype: "plain", Talents: talents}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "original", talents[0])
}

func TestRegistry_Names(t *testing.T) {
	reg := character.NewRegistry()
	factory := func(b character.Build, _ *zap.Logger) (character.Character, error) { return character.NewBase(b), nil }
	reg.Register("rime", factory)
	reg.Register("mirage", factory)
	assert.Equal(t, []string{"mirage", "rime"}, reg.Names())
}
