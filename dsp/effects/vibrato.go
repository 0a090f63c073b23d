package effects

import (
	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/dsp/delay"
)

const (
	vibratoWindowSeconds = 0.020
	// Delay swing per semitone of depth, as a fraction of the window.
	vibratoSwingPerSemitone = 0.059

	defaultVibratoRateHz = 5.0
	defaultVibratoDepth  = 0.5
	defaultVibratoMix    = 1.0
)

// VibratoOption mutates vibrato construction parameters.
type VibratoOption func(*Vibrato) error

// WithVibratoRateHz sets modulation speed in [0.1, 10] Hz.
func WithVibratoRateHz(rateHz float64) VibratoOption {
	return func(v *Vibrato) error {
		if err := checkRange("vibrato rate", rateHz, 0.1, 10); err != nil {
			return err
		}
		v.rateHz = rateHz
		return nil
	}
}

// WithVibratoDepth sets pitch swing in [0, 2] semitones.
func WithVibratoDepth(semitones float64) VibratoOption {
	return func(v *Vibrato) error {
		if err := checkRange("vibrato depth", semitones, 0, 2); err != nil {
			return err
		}
		v.depth = semitones
		return nil
	}
}

// WithVibratoMix sets wet amount in [0, 1].
func WithVibratoMix(amount float64) VibratoOption {
	return func(v *Vibrato) error {
		if err := checkRange("vibrato mix", amount, 0, 1); err != nil {
			return err
		}
		v.mix = amount
		return nil
	}
}

// Vibrato modulates pitch by reading a 20 ms delay window at a position
// swept by a sine LFO.
type Vibrato struct {
	toggle
	rateHz float64
	depth  float64
	mix    float64
}

// NewVibrato creates a vibrato with practical defaults and optional overrides.
func NewVibrato(opts ...VibratoOption) (*Vibrato, error) {
	v := &Vibrato{rateHz: defaultVibratoRateHz, depth: defaultVibratoDepth, mix: defaultVibratoMix}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Apply implements Unit.
func (v *Vibrato) Apply(src audio.Stream) audio.Stream {
	if !v.Enabled() {
		return src
	}

	sr := sampleRateOf(src)
	channels := src.Format().Channels
	s := &vibratoState{
		lfo:   newLFO(v.rateHz, sr),
		mix:   v.mix,
		lines: make([]*delay.Line, channels),
	}

	size := max(4, int(vibratoWindowSeconds*sr))
	s.center = float64(size) / 2
	s.swing = min(v.depth*vibratoSwingPerSemitone*float64(size), s.center-1)
	for ch := range s.lines {
		s.lines[ch], _ = delay.New(size)
	}

	return newProcessStream(src, s)
}

type vibratoState struct {
	lfo    lfo
	mix    float64
	center float64
	swing  float64
	lines  []*delay.Line
}

func (s *vibratoState) process(frame []float64) {
	d := s.center + s.swing*s.lfo.value(0)
	for ch, x := range frame {
		line := s.lines[ch]
		line.Write(x)
		frame[ch] = mix(x, line.ReadLinear(d), s.mix)
	}
	s.lfo.advance()
}
