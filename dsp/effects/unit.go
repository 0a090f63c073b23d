package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fxplayer/audio"
)

// Unit is one stage of the effect chain.
//
// Apply wraps src and returns a stream that transforms whatever it reads
// from src. The returned stream owns all processing state, so applying the
// same Unit twice yields two independent streams. A disabled unit returns
// src unchanged.
type Unit interface {
	Enabled() bool
	Apply(src audio.Stream) audio.Stream
}

// toggle carries the enabled flag shared by all units.
type toggle struct {
	disabled bool
}

// Enabled reports whether the unit processes audio.
func (t *toggle) Enabled() bool { return !t.disabled }

// SetEnabled switches the unit on or off for subsequent Apply calls.
func (t *toggle) SetEnabled(on bool) { t.disabled = !on }

// frameProcessor transforms one interleaved frame in place.
type frameProcessor interface {
	process(frame []float64)
}

// processStream runs a frameProcessor over a source. Requests are rounded
// down to whole frames; buffers smaller than one frame are served from a
// one-frame carry so callers may read any length.
type processStream struct {
	src      audio.Stream
	proc     frameProcessor
	channels int
	frame    []float64
	carry    []float32
	carryPos int
}

func newProcessStream(src audio.Stream, proc frameProcessor) *processStream {
	ch := src.Format().Channels
	return &processStream{
		src:      src,
		proc:     proc,
		channels: ch,
		frame:    make([]float64, ch),
		carry:    make([]float32, 0, ch),
	}
}

func (s *processStream) Format() audio.Format { return s.src.Format() }

func (s *processStream) Read(buf []float32) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	if s.carryPos < len(s.carry) {
		n := copy(buf, s.carry[s.carryPos:])
		s.carryPos += n
		return n, nil
	}

	whole := len(buf) / s.channels * s.channels
	if whole == 0 {
		s.carry = s.carry[:s.channels]
		n, err := s.src.Read(s.carry)
		s.carry = s.carry[:n]
		s.run(s.carry)
		s.carryPos = copy(buf, s.carry)
		if s.carryPos < n {
			return s.carryPos, nil
		}
		return s.carryPos, err
	}

	n, err := s.src.Read(buf[:whole])
	s.run(buf[:n])
	return n, err
}

func (s *processStream) run(buf []float32) {
	ch := s.channels
	for i := 0; i+ch <= len(buf); i += ch {
		for c := 0; c < ch; c++ {
			s.frame[c] = float64(buf[i+c])
		}
		s.proc.process(s.frame)
		for c := 0; c < ch; c++ {
			buf[i+c] = float32(s.frame[c])
		}
	}
}

// lfo is a sine oscillator advanced once per frame. phase is in cycles.
type lfo struct {
	phase float64
	inc   float64
}

func newLFO(rateHz, sampleRate float64) lfo {
	return lfo{inc: rateHz / sampleRate}
}

// value returns sin(2*pi*(phase+offset)) for the current frame.
func (l *lfo) value(offset float64) float64 {
	return math.Sin(2 * math.Pi * (l.phase + offset))
}

func (l *lfo) advance() {
	l.phase += l.inc
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
	}
}

func mix(dry, wet, amount float64) float64 {
	return dry*(1-amount) + wet*amount
}

func checkRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < lo || v > hi {
		return fmt.Errorf("%s must be in [%g, %g]: %f", name, lo, hi, v)
	}
	return nil
}

func sampleRateOf(src audio.Stream) float64 {
	return float64(src.Format().SampleRate)
}
