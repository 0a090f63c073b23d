package meter

import (
	"fmt"
	"math"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-fxplayer/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// FloorDB is reported for silence.
const FloorDB = -130.0

// Levels summarizes the recent signal in dBFS.
type Levels struct {
	PeakDB float64
	RMSDB  float64
}

// Analyzer derives levels and a magnitude spectrum from a Tap.
// It is not safe for concurrent use; the transport calls it from its
// position sampler only.
type Analyzer struct {
	tap        *Tap
	sampleRate float64
	size       int

	window     []float64
	windowGain float64
	plan       *algofft.Plan[complex128]

	frame []float64
	in    []complex128
	out   []complex128
	re    []float64
	im    []float64
	mag   []float64
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*analyzerConfig)

type analyzerConfig struct {
	window window.Type
}

// WithWindow selects the spectrum window. The default is Hann.
func WithWindow(t window.Type) AnalyzerOption {
	return func(c *analyzerConfig) { c.window = t }
}

// NewAnalyzer creates an analyzer over the last fftSize frames of tap.
// fftSize must be a power of two between 256 and 16384.
func NewAnalyzer(tap *Tap, fftSize int, sampleRate float64, opts ...AnalyzerOption) (*Analyzer, error) {
	if tap == nil {
		return nil, fmt.Errorf("meter analyzer needs a tap")
	}
	if fftSize < 256 || fftSize > 16384 || bits.OnesCount(uint(fftSize)) != 1 {
		return nil, fmt.Errorf("meter fft size must be a power of two in [256, 16384]: %d", fftSize)
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("meter sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := analyzerConfig{window: window.Hann}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	win, err := window.Generate(cfg.window, fftSize)
	if err != nil {
		return nil, fmt.Errorf("meter window: %w", err)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("meter init fft plan: %w", err)
	}

	a := &Analyzer{
		tap:        tap,
		sampleRate: sampleRate,
		size:       fftSize,
		window:     win,
		windowGain: window.CoherentGain(win),
		plan:       plan,
		frame:      make([]float64, fftSize),
		in:         make([]complex128, fftSize),
		out:        make([]complex128, fftSize),
		re:         make([]float64, fftSize/2+1),
		im:         make([]float64, fftSize/2+1),
		mag:        make([]float64, fftSize/2+1),
	}

	return a, nil
}

// Levels returns the peak and RMS level of the analysis window.
func (a *Analyzer) Levels() Levels {
	n := a.tap.Snapshot(a.frame)
	if n == 0 {
		return Levels{PeakDB: FloorDB, RMSDB: FloorDB}
	}

	x := a.frame[:n]
	peak := vecmath.MaxAbs(x)
	rms := math.Sqrt(vecmath.DotProduct(x, x) / float64(n))

	return Levels{PeakDB: toDB(peak), RMSDB: toDB(rms)}
}

// BinHz returns the frequency spacing of Spectrum bins.
func (a *Analyzer) BinHz() float64 {
	return a.sampleRate / float64(a.size)
}

// Spectrum returns single-sided magnitudes in dBFS, one value per bin from
// DC to Nyquist. The returned slice is reused by the next call.
func (a *Analyzer) Spectrum() []float64 {
	n := a.tap.Snapshot(a.frame)
	if n < a.size {
		for i := range a.mag {
			a.mag[i] = FloorDB
		}
		return a.mag
	}

	vecmath.MulBlockInPlace(a.frame, a.window)
	for i, v := range a.frame {
		a.in[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		for i := range a.mag {
			a.mag[i] = FloorDB
		}
		return a.mag
	}

	for k := range a.re {
		a.re[k] = real(a.out[k])
		a.im[k] = imag(a.out[k])
	}
	vecmath.Magnitude(a.mag, a.re, a.im)

	norm := 1 / (float64(a.size) * math.Max(a.windowGain, 1e-12))
	last := len(a.mag) - 1
	for k := range a.mag {
		m := a.mag[k] * norm
		if k > 0 && k < last {
			m *= 2
		}
		a.mag[k] = toDB(m)
	}

	return a.mag
}

func toDB(v float64) float64 {
	if v <= 0 {
		return FloorDB
	}
	return math.Max(FloorDB, 20*math.Log10(v))
}
