package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Option configures a Quantizer.
type Option func(*Quantizer) error

// WithType sets the dither distribution. The default is None.
func WithType(t Type) Option {
	return func(q *Quantizer) error {
		if !t.Valid() {
			return fmt.Errorf("dither: invalid type %d", t)
		}
		q.typ = t
		return nil
	}
}

// WithAmplitude scales the dither noise in LSB (default 1).
func WithAmplitude(lsb float64) Option {
	return func(q *Quantizer) error {
		if lsb < 0 || math.IsNaN(lsb) || math.IsInf(lsb, 0) {
			return fmt.Errorf("dither: amplitude must be >= 0 and finite: %f", lsb)
		}
		q.amp = lsb
		return nil
	}
}

// WithShaping enables error-feedback noise shaping. Shaping is off by
// default.
func WithShaping(p Preset) Option {
	return func(q *Quantizer) error {
		if !p.Valid() {
			return fmt.Errorf("dither: invalid shaping preset %d", p)
		}
		q.preset = p
		return nil
	}
}

// WithSeed makes the noise reproducible.
func WithSeed(seed uint64) Option {
	return func(q *Quantizer) error {
		q.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		return nil
	}
}

// Quantizer maps interleaved float samples in [-1, 1] to signed integers
// of a fixed bit depth. Each channel keeps its own shaping history. A
// Quantizer is not safe for concurrent use.
type Quantizer struct {
	bits     int
	channels int
	typ      Type
	amp      float64
	preset   Preset
	rng      *rand.Rand

	scale  float64
	lo, hi float64

	shapers []*shaper
	ch      int // channel of the next sample
}

// New creates a quantizer for bits in [2, 24] and channels > 0.
func New(bits, channels int, opts ...Option) (*Quantizer, error) {
	if bits < 2 || bits > 24 {
		return nil, fmt.Errorf("dither: bit depth must be in [2, 24]: %d", bits)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("dither: channel count must be > 0: %d", channels)
	}

	q := &Quantizer{bits: bits, channels: channels, amp: 1}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	q.scale = math.Exp2(float64(bits-1)) - 1
	q.lo, q.hi = -q.scale-1, q.scale
	q.shapers = make([]*shaper, channels)
	for i := range q.shapers {
		q.shapers[i] = newShaper(q.preset.Coefficients())
	}
	return q, nil
}

// BitDepth returns the target sample size.
func (q *Quantizer) BitDepth() int { return q.bits }

// Type returns the dither distribution.
func (q *Quantizer) Type() Type { return q.typ }

// Shaping returns the noise-shaping preset.
func (q *Quantizer) Shaping() Preset { return q.preset }

// Quantize converts src into dst, which must be at least as long. Input
// is clipped to [-1, 1] before scaling; output is limited to the integer
// range of the bit depth. Calls may split the stream anywhere, the
// channel position carries over.
func (q *Quantizer) Quantize(dst []int, src []float32) {
	for i, v := range src {
		dst[i] = q.sample(float64(v))
	}
}

func (q *Quantizer) sample(v float64) int {
	s := q.shapers[q.ch]
	q.ch++
	if q.ch == q.channels {
		q.ch = 0
	}

	x := math.Max(-1, math.Min(1, v)) * q.scale
	shaped := s.shape(x)
	out := math.Round(shaped + q.noise())
	out = math.Max(q.lo, math.Min(q.hi, out))
	s.record(out - shaped)
	return int(out)
}

func (q *Quantizer) noise() float64 {
	switch q.typ {
	case Rectangular:
		return q.amp * (q.rng.Float64() - 0.5)
	case Triangular:
		return q.amp * (q.rng.Float64() - q.rng.Float64())
	case Gaussian:
		return q.amp * q.rng.NormFloat64()
	default:
		return 0
	}
}

// Reset clears the shaping history and restarts at the first channel.
func (q *Quantizer) Reset() {
	for _, s := range q.shapers {
		s.reset()
	}
	q.ch = 0
}

// shaper subtracts weighted past quantization errors from the input.
type shaper struct {
	coeffs  []float64
	history []float64
	pos     int
}

func newShaper(coeffs []float64) *shaper {
	return &shaper{coeffs: coeffs, history: make([]float64, len(coeffs))}
}

func (s *shaper) shape(x float64) float64 {
	n := len(s.coeffs)
	if n == 0 {
		return x
	}
	for i, c := range s.coeffs {
		x -= c * s.history[(n+s.pos-i)%n]
	}
	s.pos = (s.pos + 1) % n
	return x
}

func (s *shaper) record(err float64) {
	if len(s.history) > 0 {
		s.history[s.pos] = err
	}
}

func (s *shaper) reset() {
	clear(s.history)
	s.pos = 0
}
