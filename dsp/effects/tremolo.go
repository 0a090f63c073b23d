package effects

import (
	"github.com/cwbudde/algo-fxplayer/audio"
)

const (
	defaultTremoloRateHz = 5.0
	defaultTremoloDepth  = 0.5
)

// TremoloOption mutates tremolo construction parameters.
type TremoloOption func(*Tremolo) error

// WithTremoloRateHz sets modulation speed in [0.1, 10] Hz.
func WithTremoloRateHz(rateHz float64) TremoloOption {
	return func(t *Tremolo) error {
		if err := checkRange("tremolo rate", rateHz, 0.1, 10); err != nil {
			return err
		}
		t.rateHz = rateHz
		return nil
	}
}

// WithTremoloDepth sets modulation depth in [0, 1].
func WithTremoloDepth(depth float64) TremoloOption {
	return func(t *Tremolo) error {
		if err := checkRange("tremolo depth", depth, 0, 1); err != nil {
			return err
		}
		t.depth = depth
		return nil
	}
}

// Tremolo applies sine amplitude modulation:
// gain = 1 - depth*(1-sin(2*pi*phase))*0.5.
type Tremolo struct {
	toggle
	rateHz float64
	depth  float64
}

// NewTremolo creates a tremolo with practical defaults and optional overrides.
func NewTremolo(opts ...TremoloOption) (*Tremolo, error) {
	t := &Tremolo{rateHz: defaultTremoloRateHz, depth: defaultTremoloDepth}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// RateHz returns modulation speed in Hz.
func (t *Tremolo) RateHz() float64 { return t.rateHz }

// Depth returns modulation depth.
func (t *Tremolo) Depth() float64 { return t.depth }

// Apply implements Unit.
func (t *Tremolo) Apply(src audio.Stream) audio.Stream {
	if !t.Enabled() {
		return src
	}
	return newProcessStream(src, &tremoloState{
		depth: t.depth,
		lfo:   newLFO(t.rateHz, sampleRateOf(src)),
	})
}

type tremoloState struct {
	depth float64
	lfo   lfo
}

func (s *tremoloState) process(frame []float64) {
	gain := 1 - s.depth*(1-s.lfo.value(0))*0.5
	for i := range frame {
		frame[i] *= gain
	}
	s.lfo.advance()
}
