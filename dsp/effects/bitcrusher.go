package effects

import (
	"math"

	"github.com/cwbudde/algo-fxplayer/audio"
)

const (
	defaultBitcrusherBits       = 8
	defaultBitcrusherDownsample = 1
	defaultBitcrusherMix        = 1.0
	maxBitcrusherDownsample     = 64
)

// BitcrusherOption mutates bitcrusher construction parameters.
type BitcrusherOption func(*Bitcrusher) error

// WithBitDepth sets quantization depth in [1, 16] bits.
func WithBitDepth(bits int) BitcrusherOption {
	return func(b *Bitcrusher) error {
		if err := checkRange("bitcrusher bit depth", float64(bits), 1, 16); err != nil {
			return err
		}
		b.bits = bits
		return nil
	}
}

// WithDownsample sets the sample-and-hold factor in [1, 64].
func WithDownsample(factor int) BitcrusherOption {
	return func(b *Bitcrusher) error {
		if err := checkRange("bitcrusher downsample", float64(factor), 1, maxBitcrusherDownsample); err != nil {
			return err
		}
		b.downsample = factor
		return nil
	}
}

// WithBitcrusherMix sets wet amount in [0, 1].
func WithBitcrusherMix(amount float64) BitcrusherOption {
	return func(b *Bitcrusher) error {
		if err := checkRange("bitcrusher mix", amount, 0, 1); err != nil {
			return err
		}
		b.mix = amount
		return nil
	}
}

// Bitcrusher holds every downsample-th frame and rounds samples to
// 2^bits levels.
type Bitcrusher struct {
	toggle
	bits       int
	downsample int
	mix        float64
}

// NewBitcrusher creates a bitcrusher with practical defaults and optional overrides.
func NewBitcrusher(opts ...BitcrusherOption) (*Bitcrusher, error) {
	b := &Bitcrusher{
		bits:       defaultBitcrusherBits,
		downsample: defaultBitcrusherDownsample,
		mix:        defaultBitcrusherMix,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Quantize rounds x to the nearest of 2^bits levels spanning [-1, 1].
func (b *Bitcrusher) Quantize(x float64) float64 {
	step := 2 / math.Exp2(float64(b.bits))
	return math.Round(x/step) * step
}

// Apply implements Unit.
func (b *Bitcrusher) Apply(src audio.Stream) audio.Stream {
	if !b.Enabled() {
		return src
	}
	return newProcessStream(src, &bitcrusherState{
		unit: b,
		held: make([]float64, src.Format().Channels),
	})
}

type bitcrusherState struct {
	unit    *Bitcrusher
	held    []float64
	counter int
}

func (s *bitcrusherState) process(frame []float64) {
	if s.counter == 0 {
		for ch, x := range frame {
			s.held[ch] = s.unit.Quantize(x)
		}
	}
	s.counter++
	if s.counter >= s.unit.downsample {
		s.counter = 0
	}
	for ch, x := range frame {
		frame[ch] = mix(x, s.held[ch], s.unit.mix)
	}
}
