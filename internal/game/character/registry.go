package character

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ErrUnknownArchetype is returned by Registry.Build for unregistered archetypes.
var ErrUnknownArchetype = errors.New("unknown archetype")

// Factory builds a fresh character from a build snapshot. Each call must
// return independent state so parallel runs never share a character.
type Factory func(b Build, logger *zap.Logger) (Character, error)

// Registry maps archetype names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds f under name, overwriting any existing entry.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Names returns the registered archetypes, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Build validates b and invokes the factory for b.Archetype. b is copied so the
// caller's snapshot is never mutated.
//
// Precondition: logger must be non-nil.
func (r *Registry) Build(b Build, logger *zap.Logger) (Character, error) {
	f, ok := r.factories[b.Archetype]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArchetype, b.Archetype)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("build for %q: %w", b.Archetype, err)
	}
	b.Talents = append([]string(nil), b.Talents...)
	return f(b, logger)
}
