package effects

import (
	"math"

	"github.com/cwbudde/algo-fxplayer/audio"
)

const (
	saturationMaxDrive = 3.0
	distortionMaxDrive = 10.0

	// Tone maps [0, 1] onto a one-pole low-pass cutoff of 200 Hz..20 kHz.
	toneMinHz   = 200.0
	toneSpanLog = 2.0 // decades above toneMinHz

	defaultShaperDrive = 0.5
	defaultShaperTone  = 0.5
	defaultShaperMix   = 1.0
)

// ShaperOption mutates Saturation and Distortion construction parameters.
type ShaperOption func(*shaperConfig) error

type shaperConfig struct {
	name  string
	drive float64
	tone  float64
	mix   float64
}

// WithDrive sets input drive in [0, 1].
func WithDrive(drive float64) ShaperOption {
	return func(cfg *shaperConfig) error {
		if err := checkRange(cfg.name+" drive", drive, 0, 1); err != nil {
			return err
		}
		cfg.drive = drive
		return nil
	}
}

// WithTone sets brightness in [0, 1]; 1 is brightest.
func WithTone(tone float64) ShaperOption {
	return func(cfg *shaperConfig) error {
		if err := checkRange(cfg.name+" tone", tone, 0, 1); err != nil {
			return err
		}
		cfg.tone = tone
		return nil
	}
}

// WithShaperMix sets wet amount in [0, 1].
func WithShaperMix(amount float64) ShaperOption {
	return func(cfg *shaperConfig) error {
		if err := checkRange(cfg.name+" mix", amount, 0, 1); err != nil {
			return err
		}
		cfg.mix = amount
		return nil
	}
}

// shaper is the tanh waveshaper shared by Saturation and Distortion.
type shaper struct {
	toggle
	cfg      shaperConfig
	maxDrive float64
}

func newShaper(name string, maxDrive float64, opts []ShaperOption) (shaper, error) {
	s := shaper{
		cfg:      shaperConfig{name: name, drive: defaultShaperDrive, tone: defaultShaperTone, mix: defaultShaperMix},
		maxDrive: maxDrive,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&s.cfg); err != nil {
			return shaper{}, err
		}
	}
	return s, nil
}

// DriveGain returns the linear pre-gain, 1 at drive 0 and maxDrive at 1.
func (s *shaper) DriveGain() float64 {
	return 1 + s.cfg.drive*(s.maxDrive-1)
}

// ToneHz returns the low-pass cutoff selected by tone.
func (s *shaper) ToneHz() float64 {
	return toneMinHz * math.Pow(10, s.cfg.tone*toneSpanLog)
}

// Mix returns the wet amount.
func (s *shaper) Mix() float64 { return s.cfg.mix }

// Apply implements Unit.
func (s *shaper) Apply(src audio.Stream) audio.Stream {
	if !s.Enabled() {
		return src
	}
	sr := sampleRateOf(src)
	cutoff := math.Min(s.ToneHz(), 0.45*sr)
	return newProcessStream(src, &shaperState{
		gain:  s.DriveGain(),
		alpha: 1 - math.Exp(-2*math.Pi*cutoff/sr),
		mix:   s.cfg.mix,
		lp:    make([]float64, src.Format().Channels),
	})
}

type shaperState struct {
	gain  float64
	alpha float64
	mix   float64
	lp    []float64
}

func (s *shaperState) process(frame []float64) {
	for ch, x := range frame {
		wet := mathTanh(x * s.gain)
		s.lp[ch] += s.alpha * (wet - s.lp[ch])
		frame[ch] = mix(x, s.lp[ch], s.mix)
	}
}

// Saturation is gentle tanh drive (x1..x3) with a tone low-pass.
type Saturation struct {
	shaper
}

// NewSaturation creates a saturation unit.
func NewSaturation(opts ...ShaperOption) (*Saturation, error) {
	s, err := newShaper("saturation", saturationMaxDrive, opts)
	if err != nil {
		return nil, err
	}
	return &Saturation{shaper: s}, nil
}

// Distortion is hard tanh drive (x1..x10) with a tone low-pass.
type Distortion struct {
	shaper
}

// NewDistortion creates a distortion unit.
func NewDistortion(opts ...ShaperOption) (*Distortion, error) {
	s, err := newShaper("distortion", distortionMaxDrive, opts)
	if err != nil {
		return nil, err
	}
	return &Distortion{shaper: s}, nil
}
