package effects

import (
	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/dsp/core"
)

const (
	defaultCompressorThresholdDB = -20.0
	defaultCompressorRatio       = 4.0
	defaultCompressorAttackMs    = 10.0
	defaultCompressorReleaseMs   = 100.0
	defaultCompressorMakeupDB    = 0.0
)

// CompressorOption mutates compressor construction parameters.
type CompressorOption func(*Compressor) error

// WithCompressorThresholdDB sets the threshold in [-60, 0] dBFS.
func WithCompressorThresholdDB(db float64) CompressorOption {
	return func(c *Compressor) error {
		if err := checkRange("compressor threshold", db, -60, 0); err != nil {
			return err
		}
		c.thresholdDB = db
		return nil
	}
}

// WithCompressorRatio sets the compression ratio in [1, 20].
func WithCompressorRatio(ratio float64) CompressorOption {
	return func(c *Compressor) error {
		if err := checkRange("compressor ratio", ratio, 1, 20); err != nil {
			return err
		}
		c.ratio = ratio
		return nil
	}
}

// WithCompressorAttackMs sets the envelope attack time in [0.1, 1000] ms.
func WithCompressorAttackMs(ms float64) CompressorOption {
	return func(c *Compressor) error {
		if err := checkRange("compressor attack", ms, 0.1, 1000); err != nil {
			return err
		}
		c.attackMs = ms
		return nil
	}
}

// WithCompressorReleaseMs sets the envelope release time in [1, 5000] ms.
func WithCompressorReleaseMs(ms float64) CompressorOption {
	return func(c *Compressor) error {
		if err := checkRange("compressor release", ms, 1, 5000); err != nil {
			return err
		}
		c.releaseMs = ms
		return nil
	}
}

// WithCompressorMakeupDB sets post-compression gain in [0, 12] dB.
func WithCompressorMakeupDB(db float64) CompressorOption {
	return func(c *Compressor) error {
		if err := checkRange("compressor makeup", db, 0, 12); err != nil {
			return err
		}
		c.makeupDB = db
		return nil
	}
}

// Compressor reduces level above a threshold using a peak envelope.
// Above threshold T an envelope e maps to T*(1+(e/T-1)/ratio).
type Compressor struct {
	toggle
	thresholdDB float64
	ratio       float64
	attackMs    float64
	releaseMs   float64
	makeupDB    float64
}

// NewCompressor creates a compressor with practical defaults and optional overrides.
func NewCompressor(opts ...CompressorOption) (*Compressor, error) {
	c := &Compressor{
		thresholdDB: defaultCompressorThresholdDB,
		ratio:       defaultCompressorRatio,
		attackMs:    defaultCompressorAttackMs,
		releaseMs:   defaultCompressorReleaseMs,
		makeupDB:    defaultCompressorMakeupDB,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Gain returns the static gain, makeup excluded, for envelope level env.
func (c *Compressor) Gain(env float64) float64 {
	return compressorGain(env, core.DBToLinear(c.thresholdDB), c.ratio)
}

func compressorGain(env, threshold, ratio float64) float64 {
	if env <= threshold || env <= 0 {
		return 1
	}
	level := threshold * (1 + (env/threshold-1)/ratio)
	return level / env
}

// Apply implements Unit.
func (c *Compressor) Apply(src audio.Stream) audio.Stream {
	if !c.Enabled() {
		return src
	}
	return newProcessStream(src, &compressorState{
		threshold: core.DBToLinear(c.thresholdDB),
		ratio:     c.ratio,
		makeup:    core.DBToLinear(c.makeupDB),
		env:       newEnvelope(src.Format().Channels, c.attackMs, c.releaseMs, sampleRateOf(src)),
	})
}

type compressorState struct {
	threshold float64
	ratio     float64
	makeup    float64
	env       envelope
}

func (s *compressorState) process(frame []float64) {
	for ch, x := range frame {
		g := compressorGain(s.env.follow(ch, x), s.threshold, s.ratio)
		frame[ch] = x * g * s.makeup
	}
}
