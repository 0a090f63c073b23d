package effects

import (
	"math"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/dsp/delay"
)

const (
	chorusMinDelayS  = 0.010
	chorusMaxDelayS  = 0.025
	flangerMinDelayS = 0.001
	flangerMaxDelayS = 0.020

	// Feedback magnitude is capped below 1 to keep the loops stable.
	maxModFeedback = 0.95

	// Right-channel LFO lead, in cycles, for a wider stereo image.
	stereoPhaseOffset = 0.25

	defaultModRateHz   = 0.5
	defaultModDepth    = 0.5
	defaultModFeedback = 0.0
	defaultModMix      = 0.5
)

// ModOption mutates Chorus, Flanger and Phaser construction parameters.
type ModOption func(*modConfig) error

type modConfig struct {
	name     string
	rateHz   float64
	depth    float64
	feedback float64
	mix      float64
}

func newModConfig(name string, opts []ModOption) (modConfig, error) {
	cfg := modConfig{
		name:     name,
		rateHz:   defaultModRateHz,
		depth:    defaultModDepth,
		feedback: defaultModFeedback,
		mix:      defaultModMix,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return modConfig{}, err
		}
	}
	return cfg, nil
}

// WithModRateHz sets LFO speed in [0.1, 5] Hz.
func WithModRateHz(rateHz float64) ModOption {
	return func(cfg *modConfig) error {
		if err := checkRange(cfg.name+" rate", rateHz, 0.1, 5); err != nil {
			return err
		}
		cfg.rateHz = rateHz
		return nil
	}
}

// WithModDepth sets sweep depth in [0, 1].
func WithModDepth(depth float64) ModOption {
	return func(cfg *modConfig) error {
		if err := checkRange(cfg.name+" depth", depth, 0, 1); err != nil {
			return err
		}
		cfg.depth = depth
		return nil
	}
}

// WithModFeedback sets feedback in [-1, 1]. Chorus ignores it.
func WithModFeedback(feedback float64) ModOption {
	return func(cfg *modConfig) error {
		if err := checkRange(cfg.name+" feedback", feedback, -1, 1); err != nil {
			return err
		}
		cfg.feedback = feedback
		return nil
	}
}

// WithModMix sets wet amount in [0, 1].
func WithModMix(amount float64) ModOption {
	return func(cfg *modConfig) error {
		if err := checkRange(cfg.name+" mix", amount, 0, 1); err != nil {
			return err
		}
		cfg.mix = amount
		return nil
	}
}

func (cfg modConfig) loopFeedback() float64 {
	return cfg.feedback * maxModFeedback
}

// Chorus mixes in copies read from a 10-25 ms delay swept by a sine LFO.
type Chorus struct {
	toggle
	cfg modConfig
}

// NewChorus creates a chorus.
func NewChorus(opts ...ModOption) (*Chorus, error) {
	cfg, err := newModConfig("chorus", opts)
	if err != nil {
		return nil, err
	}
	return &Chorus{cfg: cfg}, nil
}

// Apply implements Unit.
func (c *Chorus) Apply(src audio.Stream) audio.Stream {
	if !c.Enabled() {
		return src
	}
	return newProcessStream(src, newSweptDelay(src, c.cfg, chorusMinDelayS, chorusMaxDelayS, 0))
}

// Flanger is a 1-20 ms swept delay whose output is fed back into the
// delay line.
type Flanger struct {
	toggle
	cfg modConfig
}

// NewFlanger creates a flanger.
func NewFlanger(opts ...ModOption) (*Flanger, error) {
	cfg, err := newModConfig("flanger", opts)
	if err != nil {
		return nil, err
	}
	return &Flanger{cfg: cfg}, nil
}

// Apply implements Unit.
func (f *Flanger) Apply(src audio.Stream) audio.Stream {
	if !f.Enabled() {
		return src
	}
	return newProcessStream(src, newSweptDelay(src, f.cfg, flangerMinDelayS, flangerMaxDelayS, f.cfg.loopFeedback()))
}

// sweptDelay is the chorus/flanger kernel. The delay centre sits midway
// between minS and maxS and depth scales the swing to either bound.
type sweptDelay struct {
	lfo      lfo
	mix      float64
	feedback float64
	center   float64
	swing    float64
	lines    []*delay.Line
}

func newSweptDelay(src audio.Stream, cfg modConfig, minS, maxS, feedback float64) *sweptDelay {
	sr := sampleRateOf(src)
	s := &sweptDelay{
		lfo:      newLFO(cfg.rateHz, sr),
		mix:      cfg.mix,
		feedback: feedback,
		center:   (minS + maxS) / 2 * sr,
		swing:    cfg.depth * (maxS - minS) / 2 * sr,
		lines:    make([]*delay.Line, src.Format().Channels),
	}
	size := int(math.Ceil(maxS*sr)) + 2
	for ch := range s.lines {
		s.lines[ch], _ = delay.New(size)
	}
	return s
}

func (s *sweptDelay) process(frame []float64) {
	for ch, x := range frame {
		d := s.center + s.swing*s.lfo.value(float64(ch)*stereoPhaseOffset)
		line := s.lines[ch]
		wet := line.ReadLinear(d)
		line.Write(x + s.feedback*wet)
		frame[ch] = mix(x, wet, s.mix)
	}
	s.lfo.advance()
}

const (
	phaserStages  = 6
	phaserMinHz   = 200.0
	phaserMaxHz   = 2000.0
	phaserNyquist = 0.45
)

// Phaser runs six first-order all-pass stages whose break frequency is
// swept between 200 Hz and 2 kHz, with one-sample output feedback.
type Phaser struct {
	toggle
	cfg modConfig
}

// NewPhaser creates a phaser.
func NewPhaser(opts ...ModOption) (*Phaser, error) {
	cfg, err := newModConfig("phaser", opts)
	if err != nil {
		return nil, err
	}
	return &Phaser{cfg: cfg}, nil
}

// Apply implements Unit.
func (p *Phaser) Apply(src audio.Stream) audio.Stream {
	if !p.Enabled() {
		return src
	}
	channels := src.Format().Channels
	return newProcessStream(src, &phaserState{
		sampleRate: sampleRateOf(src),
		lfo:        newLFO(p.cfg.rateHz, sampleRateOf(src)),
		depth:      p.cfg.depth,
		mix:        p.cfg.mix,
		feedback:   p.cfg.loopFeedback(),
		stages:     make([][phaserStages]allpassState, channels),
		last:       make([]float64, channels),
	})
}

type allpassState struct {
	x1, y1 float64
}

type phaserState struct {
	sampleRate float64
	lfo        lfo
	depth      float64
	mix        float64
	feedback   float64
	stages     [][phaserStages]allpassState
	last       []float64
}

// coefficient maps the LFO position to a first-order all-pass coefficient.
// depth 0 parks the sweep at the bottom of the range.
func (s *phaserState) coefficient(mod float64) float64 {
	pos := s.depth * (mod + 1) / 2
	fc := phaserMinHz * mathExp(pos*math.Log(phaserMaxHz/phaserMinHz))
	fc = math.Min(fc, phaserNyquist*s.sampleRate)
	t := math.Tan(math.Pi * fc / s.sampleRate)
	return (t - 1) / (t + 1)
}

func (s *phaserState) process(frame []float64) {
	for ch, x := range frame {
		a := s.coefficient(s.lfo.value(float64(ch) * stereoPhaseOffset))
		y := x + s.feedback*s.last[ch]
		st := &s.stages[ch]
		for i := range st {
			out := a*y + st[i].x1 - a*st[i].y1
			st[i].x1 = y
			st[i].y1 = out
			y = out
		}
		s.last[ch] = y
		frame[ch] = mix(x, y, s.mix)
	}
	s.lfo.advance()
}
