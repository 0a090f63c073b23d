package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/dsp/core"
	"github.com/cwbudde/algo-fxplayer/dsp/delay"
	"github.com/cwbudde/algo-fxplayer/dsp/resample"
)

const (
	// MinTempo and MaxTempo bound the tempo multiplier. The upsampling
	// factor of the resampler is about 1/multiplier, so the floor also caps
	// the polyphase filter at 100 branches.
	MinTempo = 0.01
	MaxTempo = 4.0

	// ratioMaxDen limits the rational approximation used for tempo and
	// pitch ratios, which keeps the prototype filter small.
	ratioMaxDen = 1000
)

// Tempo changes playback speed by reinterpreting the input at
// rate*multiplier and resampling back to the input rate. Pitch moves with
// the speed.
type Tempo struct {
	toggle
	multiplier float64
	proto      *resample.Resampler
}

// NewTempo creates a tempo unit. multiplier must be in [MinTempo, MaxTempo].
func NewTempo(multiplier float64, opts ...resample.Option) (*Tempo, error) {
	if err := checkRange("tempo multiplier", multiplier, MinTempo, MaxTempo); err != nil {
		return nil, err
	}

	opts = append([]resample.Option{resample.WithMaxDenominator(ratioMaxDen)}, opts...)
	proto, err := resample.NewForRates(multiplier, 1, opts...)
	if err != nil {
		return nil, fmt.Errorf("tempo resampler: %w", err)
	}

	return &Tempo{multiplier: multiplier, proto: proto}, nil
}

// Multiplier returns the configured speed factor.
func (t *Tempo) Multiplier() float64 { return t.multiplier }

// Identity reports whether the unit is close enough to 1x to be skipped.
func (t *Tempo) Identity() bool {
	return core.WithinDeadZone(t.multiplier, 1, 0.01)
}

// Apply implements Unit.
func (t *Tempo) Apply(src audio.Stream) audio.Stream {
	if !t.Enabled() {
		return src
	}
	return resample.NewStreamWith(src, t.proto, src.Format().SampleRate)
}

// Pitch shifts pitch by a number of semitones without changing the
// duration. Two read heads move through a short delay window at
// 2^(semitones/12) times the input rate, each jumping back across the
// window when it reaches the end. The heads are half a window apart and
// crossfaded with sin^2 gains that sum to one, so one frame comes out for
// every frame that goes in.
type Pitch struct {
	toggle
	semitones float64
}

const pitchWindowSeconds = 0.040

// NewPitch creates a pitch unit. semitones must be in [-24, 24].
func NewPitch(semitones float64) (*Pitch, error) {
	if err := checkRange("pitch semitones", semitones, -24, 24); err != nil {
		return nil, err
	}
	return &Pitch{semitones: semitones}, nil
}

// Semitones returns the configured shift.
func (p *Pitch) Semitones() float64 { return p.semitones }

// Ratio returns the frequency factor 2^(semitones/12).
func (p *Pitch) Ratio() float64 { return core.SemitonesToRatio(p.semitones) }

// Identity reports whether the shift is negligible.
func (p *Pitch) Identity() bool {
	return core.WithinDeadZone(p.semitones, 0, 0.01)
}

// Apply implements Unit. The output has the length of src.
func (p *Pitch) Apply(src audio.Stream) audio.Stream {
	if !p.Enabled() {
		return src
	}

	window := max(8, int(pitchWindowSeconds*sampleRateOf(src)))
	ratio := p.Ratio()
	s := &pitchState{
		window: float64(window),
		step:   math.Abs(ratio-1) / float64(window),
		up:     ratio > 1,
		lines:  make([]*delay.Line, src.Format().Channels),
	}
	for ch := range s.lines {
		s.lines[ch], _ = delay.New(window + 4)
	}
	return newProcessStream(src, s)
}

type pitchState struct {
	window float64
	step   float64 // head phase advance per frame
	up     bool
	phase  float64 // [0, 1), second head at phase+0.5
	lines  []*delay.Line
}

// delayAt maps a head phase to its delay. Raising pitch shrinks the delay
// so the head reads faster than the writer; lowering grows it.
func (s *pitchState) delayAt(phase float64) float64 {
	if s.up {
		phase = 1 - phase
	}
	return 1 + phase*s.window
}

func (s *pitchState) process(frame []float64) {
	a := s.phase
	b := a + 0.5
	if b >= 1 {
		b--
	}
	ga := math.Sin(math.Pi * a)
	ga *= ga
	gb := 1 - ga
	da, db := s.delayAt(a), s.delayAt(b)

	for ch, x := range frame {
		line := s.lines[ch]
		line.Write(x)
		frame[ch] = ga*line.ReadLinear(da) + gb*line.ReadLinear(db)
	}

	s.phase += s.step
	if s.phase >= 1 {
		s.phase--
	}
}
