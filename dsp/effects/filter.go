package effects

import (
	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/dsp/filter/biquad"
	"github.com/cwbudde/algo-fxplayer/dsp/filter/design"
)

const (
	defaultFilterLowCutHz  = 200.0
	defaultFilterHighCutHz = 5000.0
)

// FilterOption mutates three-band filter construction parameters.
type FilterOption func(*Filter) error

// WithLowCutHz sets the low-shelf corner in [20, 2000] Hz.
func WithLowCutHz(hz float64) FilterOption {
	return func(f *Filter) error {
		if err := checkRange("filter low cut", hz, 20, 2000); err != nil {
			return err
		}
		f.lowCutHz = hz
		return nil
	}
}

// WithHighCutHz sets the high-shelf corner in [1000, 20000] Hz.
func WithHighCutHz(hz float64) FilterOption {
	return func(f *Filter) error {
		if err := checkRange("filter high cut", hz, 1000, 20000); err != nil {
			return err
		}
		f.highCutHz = hz
		return nil
	}
}

// WithBandGainsDB sets low, mid (1 kHz) and high gains, each in [-24, 24] dB.
func WithBandGainsDB(low, mid, high float64) FilterOption {
	return func(f *Filter) error {
		for _, g := range []float64{low, mid, high} {
			if err := checkRange("filter gain", g, -24, 24); err != nil {
				return err
			}
		}
		f.lowDB, f.midDB, f.highDB = low, mid, high
		return nil
	}
}

// Filter is a per-channel cascade of low-shelf, 1 kHz peak and high-shelf
// biquads.
type Filter struct {
	toggle
	lowCutHz  float64
	highCutHz float64
	lowDB     float64
	midDB     float64
	highDB    float64
}

// NewFilter creates a flat filter with optional overrides.
func NewFilter(opts ...FilterOption) (*Filter, error) {
	f := &Filter{lowCutHz: defaultFilterLowCutHz, highCutHz: defaultFilterHighCutHz}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Coefficients returns the three sections designed for sampleRate.
func (f *Filter) Coefficients(sampleRate float64) [3]biquad.Coefficients {
	return design.ThreeBand(f.lowCutHz, f.highCutHz, f.lowDB, f.midDB, f.highDB, sampleRate)
}

// Apply implements Unit.
func (f *Filter) Apply(src audio.Stream) audio.Stream {
	if !f.Enabled() {
		return src
	}
	c := f.Coefficients(sampleRateOf(src))
	chains := make([]*biquad.Chain, src.Format().Channels)
	for ch := range chains {
		chains[ch] = biquad.NewChain(c[:]...)
	}
	return newProcessStream(src, filterState(chains))
}

type filterState []*biquad.Chain

func (s filterState) process(frame []float64) {
	for ch, x := range frame {
		frame[ch] = s[ch].ProcessSample(x)
	}
}
