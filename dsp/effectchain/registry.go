package effectchain

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-fxplayer/dsp/effects"
)

// Factory builds the unit for one kind from a clamped snapshot. It returns
// a nil Unit when the kind is disabled or sits in its dead zone.
type Factory func(ctx Context, s Settings) (effects.Unit, error)

// Registry maps effect kinds to their factories.
type Registry struct {
	factories map[Kind]Factory
}

var errDuplicateKind = errors.New("duplicate effect kind")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// Register adds a factory for the given kind.
func (r *Registry) Register(kind Kind, factory Factory) error {
	if kind == "" {
		return errors.New("empty effect kind")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("%w: %s", errDuplicateKind, kind)
	}

	r.factories[kind] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind Kind, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic("effectchain registry: " + err.Error())
	}
}

// Lookup returns the factory for kind, or nil.
func (r *Registry) Lookup(kind Kind) Factory {
	return r.factories[kind]
}
