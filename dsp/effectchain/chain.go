// Package effectchain turns a Settings snapshot into a fixed-order chain
// of effect units over a canonical audio stream.
package effectchain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cwbudde/algo-fxplayer/audio"
)

// ErrUnknownEffect is returned when a Kind has no registered factory.
var ErrUnknownEffect = errors.New("unknown effect kind")

// Kind names one effect unit. The string form is also the JSON key of the
// unit's parameters in Settings.
type Kind string

const (
	KindTempo      Kind = "tempo"
	KindPitch      Kind = "pitch"
	KindTremolo    Kind = "tremolo"
	KindVibrato    Kind = "vibrato"
	KindGate       Kind = "gate"
	KindCompressor Kind = "compressor"
	KindSaturation Kind = "saturation"
	KindDistortion Kind = "distortion"
	KindBitcrusher Kind = "bitcrusher"
	KindChorus     Kind = "chorus"
	KindFlanger    Kind = "flanger"
	KindPhaser     Kind = "phaser"
	KindReverb     Kind = "reverb"
	KindEcho       Kind = "echo"
	KindFilter     Kind = "filter"
	KindVolume     Kind = "volume"
)

// Order is the fixed processing order of the chain.
var Order = []Kind{
	KindTempo,
	KindPitch,
	KindTremolo,
	KindVibrato,
	KindGate,
	KindCompressor,
	KindSaturation,
	KindDistortion,
	KindBitcrusher,
	KindChorus,
	KindFlanger,
	KindPhaser,
	KindReverb,
	KindEcho,
	KindFilter,
	KindVolume,
}

// Chain is one built pipeline. Chains are never mutated: a settings change
// builds a new Chain over a fresh source.
type Chain struct {
	settings Settings
	kinds    []Kind
	out      audio.Stream
}

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	ctx      Context
	registry *Registry
}

// WithContext sets the build context.
func WithContext(ctx Context) Option {
	return func(c *buildConfig) { c.ctx = ctx }
}

// WithRegistry replaces the default unit registry.
func WithRegistry(r *Registry) Option {
	return func(c *buildConfig) { c.registry = r }
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

func sharedRegistry() *Registry {
	defaultRegistryOnce.Do(func() { defaultRegistry = DefaultRegistry() })
	return defaultRegistry
}

// Build assembles the chain for s over src in Order. s is copied and
// clamped; units in their dead zone are left out.
func Build(s Settings, src audio.Stream, opts ...Option) (*Chain, error) {
	cfg := buildConfig{registry: sharedRegistry()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	s.Clamp()
	c := &Chain{settings: s, out: src}
	for _, kind := range Order {
		factory := cfg.registry.Lookup(kind)
		if factory == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEffect, kind)
		}

		unit, err := factory(cfg.ctx, s)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", kind, err)
		}
		if unit == nil || !unit.Enabled() {
			continue
		}

		c.out = unit.Apply(c.out)
		c.kinds = append(c.kinds, kind)
	}

	return c, nil
}

// Units returns the kinds of the active units in processing order.
func (c *Chain) Units() []Kind {
	return append([]Kind(nil), c.kinds...)
}

// Output returns the final stream of the chain.
func (c *Chain) Output() audio.Stream { return c.out }

// Format returns the output format.
func (c *Chain) Format() audio.Format { return c.out.Format() }

// Settings returns the clamped snapshot the chain was built from.
func (c *Chain) Settings() Settings { return c.settings }

// Validate checks that the output is canonical.
func (c *Chain) Validate() error {
	if f := c.Format(); !f.IsCanonical() {
		return fmt.Errorf("%w: chain output %v, want %v", audio.ErrFormatMismatch, f, audio.Canonical)
	}
	return nil
}
