package rime

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/cory-johannsen/simfell/internal/game/dice"
	"github.com/cory-johannsen/simfell/internal/game/effect"
	"github.com/cory-johannsen/simfell/internal/game/spell"
)

var (
	//go:embed data/spells.yaml
	spellsYAML []byte
	//go:embed data/effects.yaml
	effectsYAML []byte
)

// content is the parsed, read-only archetype data shared by every run.
type content struct {
	spells     []*spell.Def
	effects    *effect.Registry
	tickDamage map[string]dice.Expression
}

var loadContent = sync.OnceValues(func() (*content, error) {
	spells, err := spell.ParseDefs(spellsYAML)
	if err != nil {
		return nil, fmt.Errorf("rime spells: %w", err)
	}
	defs, err := effect.ParseDefs(effectsYAML)
	if err != nil {
		return nil, fmt.Errorf("rime effects: %w", err)
	}
	c := &content{spells: spells, effects: effect.NewRegistry(), tickDamage: map[string]dice.Expression{}}
	for _, d := range defs {
		c.effects.Register(d)
		if d.TickDamage == "" {
			continue
		}
		expr, err := dice.Parse(d.TickDamage)
		if err != nil {
			return nil, fmt.Errorf("rime effect %q: %w", d.ID, err)
		}
		c.tickDamage[d.ID] = expr
	}
	return c, nil
})
