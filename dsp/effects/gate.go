package effects

import (
	"math"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/dsp/core"
)

const (
	defaultGateThreshold = 0.05
	defaultGateRatio     = 10.0
	defaultGateAttackMs  = 1.0
	defaultGateReleaseMs = 100.0
	defaultGateFloor     = 0.0
)

// GateOption mutates gate construction parameters.
type GateOption func(*Gate) error

// WithGateThreshold sets the linear open threshold in [0, 1].
func WithGateThreshold(threshold float64) GateOption {
	return func(g *Gate) error {
		if err := checkRange("gate threshold", threshold, 0, 1); err != nil {
			return err
		}
		g.threshold = threshold
		return nil
	}
}

// WithGateRatio sets the reduction divisor in [1, 100].
func WithGateRatio(ratio float64) GateOption {
	return func(g *Gate) error {
		if err := checkRange("gate ratio", ratio, 1, 100); err != nil {
			return err
		}
		g.ratio = ratio
		return nil
	}
}

// WithGateAttackMs sets the envelope attack time in [0.1, 1000] ms.
func WithGateAttackMs(ms float64) GateOption {
	return func(g *Gate) error {
		if err := checkRange("gate attack", ms, 0.1, 1000); err != nil {
			return err
		}
		g.attackMs = ms
		return nil
	}
}

// WithGateReleaseMs sets the envelope release time in [1, 5000] ms.
func WithGateReleaseMs(ms float64) GateOption {
	return func(g *Gate) error {
		if err := checkRange("gate release", ms, 1, 5000); err != nil {
			return err
		}
		g.releaseMs = ms
		return nil
	}
}

// WithGateFloor sets the minimum gain in [0, 1].
func WithGateFloor(floor float64) GateOption {
	return func(g *Gate) error {
		if err := checkRange("gate floor", floor, 0, 1); err != nil {
			return err
		}
		g.floor = floor
		return nil
	}
}

// Gate attenuates material whose envelope falls below a threshold.
// Below threshold the gain is 1-(threshold-env)/threshold/ratio, never
// lower than floor.
type Gate struct {
	toggle
	threshold float64
	ratio     float64
	attackMs  float64
	releaseMs float64
	floor     float64
}

// NewGate creates a gate with practical defaults and optional overrides.
func NewGate(opts ...GateOption) (*Gate, error) {
	g := &Gate{
		threshold: defaultGateThreshold,
		ratio:     defaultGateRatio,
		attackMs:  defaultGateAttackMs,
		releaseMs: defaultGateReleaseMs,
		floor:     defaultGateFloor,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Gain returns the static gain for envelope level env.
func (g *Gate) Gain(env float64) float64 {
	if g.threshold <= 0 || env >= g.threshold {
		return 1
	}
	gain := 1 - (g.threshold-env)/g.threshold/g.ratio
	return math.Max(g.floor, gain)
}

// Apply implements Unit.
func (g *Gate) Apply(src audio.Stream) audio.Stream {
	if !g.Enabled() {
		return src
	}
	sr := sampleRateOf(src)
	return newProcessStream(src, &gateState{
		gate: g,
		env:  newEnvelope(src.Format().Channels, g.attackMs, g.releaseMs, sr),
	})
}

type gateState struct {
	gate *Gate
	env  envelope
}

func (s *gateState) process(frame []float64) {
	for ch, x := range frame {
		frame[ch] = x * s.gate.Gain(s.env.follow(ch, x))
	}
}

// envelope is a per-channel peak follower with separate attack and
// release coefficients exp(-1/(t*sr/1000)).
type envelope struct {
	attack  float64
	release float64
	level   []float64
}

func newEnvelope(channels int, attackMs, releaseMs, sampleRate float64) envelope {
	return envelope{
		attack:  core.TimeConstantCoeff(attackMs, sampleRate),
		release: core.TimeConstantCoeff(releaseMs, sampleRate),
		level:   make([]float64, channels),
	}
}

func (e *envelope) follow(ch int, x float64) float64 {
	in := math.Abs(x)
	coeff := e.release
	if in > e.level[ch] {
		coeff = e.attack
	}
	e.level[ch] = core.FlushDenormals(coeff*e.level[ch] + (1-coeff)*in)
	return e.level[ch]
}
