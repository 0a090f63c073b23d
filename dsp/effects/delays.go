package effects

import (
	"math"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/dsp/core"
	"github.com/cwbudde/algo-fxplayer/dsp/delay"
)

const (
	reverbDelayS = 0.100
	// The right channel uses a slightly longer loop to decorrelate.
	reverbStereoSpread = 1.13
	reverbMinFeedback  = 0.28
	reverbFeedbackSpan = 0.7

	defaultReverbRoomSize = 0.5
	defaultReverbDamping  = 0.5
	defaultReverbWet      = 0.3

	echoMinDelayS       = 0.001
	echoMaxDelayS       = 2.0
	echoMaxFeedback     = 0.95
	defaultEchoDelayS   = 0.25
	defaultEchoFeedback = 0.3
	defaultEchoWet      = 0.3
)

// ReverbOption mutates reverb construction parameters.
type ReverbOption func(*Reverb) error

// WithRoomSize sets loop feedback scaling in [0, 1].
func WithRoomSize(size float64) ReverbOption {
	return func(r *Reverb) error {
		if err := checkRange("reverb room size", size, 0, 1); err != nil {
			return err
		}
		r.roomSize = size
		return nil
	}
}

// WithDamping sets high-frequency loss in the loop in [0, 1].
func WithDamping(damping float64) ReverbOption {
	return func(r *Reverb) error {
		if err := checkRange("reverb damping", damping, 0, 1); err != nil {
			return err
		}
		r.damping = damping
		return nil
	}
}

// WithReverbWet sets wet level in [0, 1].
func WithReverbWet(wet float64) ReverbOption {
	return func(r *Reverb) error {
		if err := checkRange("reverb wet level", wet, 0, 1); err != nil {
			return err
		}
		r.wet = wet
		return nil
	}
}

// Reverb is a single damped comb filter per channel with a ~100 ms loop.
type Reverb struct {
	toggle
	roomSize float64
	damping  float64
	wet      float64
}

// NewReverb creates a reverb with practical defaults and optional overrides.
func NewReverb(opts ...ReverbOption) (*Reverb, error) {
	r := &Reverb{roomSize: defaultReverbRoomSize, damping: defaultReverbDamping, wet: defaultReverbWet}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Feedback returns the loop gain derived from the room size.
func (r *Reverb) Feedback() float64 {
	return reverbMinFeedback + r.roomSize*reverbFeedbackSpan
}

// Apply implements Unit.
func (r *Reverb) Apply(src audio.Stream) audio.Stream {
	if !r.Enabled() {
		return src
	}

	sr := sampleRateOf(src)
	channels := src.Format().Channels
	s := &combState{
		feedback: r.Feedback(),
		damping:  r.damping,
		wet:      r.wet,
		lines:    make([]*delay.Line, channels),
		filt:     make([]float64, channels),
	}
	for ch := range s.lines {
		seconds := reverbDelayS
		if ch%2 == 1 {
			seconds *= reverbStereoSpread
		}
		s.lines[ch], _ = delay.ForDuration(seconds, sr)
	}
	return newProcessStream(src, s)
}

// combState is a feedback comb with a one-pole damping filter in the loop.
// With damping 0 it reduces to a plain feedback delay.
type combState struct {
	feedback float64
	damping  float64
	wet      float64
	lines    []*delay.Line
	filt     []float64
}

func (s *combState) process(frame []float64) {
	for ch, x := range frame {
		line := s.lines[ch]
		d := line.Read(line.Len())
		s.filt[ch] = core.FlushDenormals(d*(1-s.damping) + s.filt[ch]*s.damping)
		line.Write(x + s.filt[ch]*s.feedback)
		frame[ch] = mix(x, d, s.wet)
	}
}

// EchoOption mutates echo construction parameters.
type EchoOption func(*Echo) error

// WithEchoDelay sets the repeat interval in [0.001, 2] seconds.
func WithEchoDelay(seconds float64) EchoOption {
	return func(e *Echo) error {
		if err := checkRange("echo delay", seconds, echoMinDelayS, echoMaxDelayS); err != nil {
			return err
		}
		e.delayS = seconds
		return nil
	}
}

// WithEchoFeedback sets repeat gain in [0, 0.95].
func WithEchoFeedback(feedback float64) EchoOption {
	return func(e *Echo) error {
		if err := checkRange("echo feedback", feedback, 0, echoMaxFeedback); err != nil {
			return err
		}
		e.feedback = feedback
		return nil
	}
}

// WithEchoWet sets wet level in [0, 1].
func WithEchoWet(wet float64) EchoOption {
	return func(e *Echo) error {
		if err := checkRange("echo wet level", wet, 0, 1); err != nil {
			return err
		}
		e.wet = wet
		return nil
	}
}

// Echo is a feedback delay whose line length equals the delay time.
type Echo struct {
	toggle
	delayS   float64
	feedback float64
	wet      float64
}

// NewEcho creates an echo with practical defaults and optional overrides.
func NewEcho(opts ...EchoOption) (*Echo, error) {
	e := &Echo{delayS: defaultEchoDelayS, feedback: defaultEchoFeedback, wet: defaultEchoWet}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// DelaySamples returns the line length at sampleRate, at least one sample.
func (e *Echo) DelaySamples(sampleRate float64) int {
	return max(1, int(math.Round(e.delayS*sampleRate)))
}

// Apply implements Unit.
func (e *Echo) Apply(src audio.Stream) audio.Stream {
	if !e.Enabled() {
		return src
	}

	n := e.DelaySamples(sampleRateOf(src))
	s := &combState{
		feedback: e.feedback,
		wet:      e.wet,
		lines:    make([]*delay.Line, src.Format().Channels),
		filt:     make([]float64, src.Format().Channels),
	}
	for ch := range s.lines {
		s.lines[ch], _ = delay.New(n)
	}
	return newProcessStream(src, s)
}
