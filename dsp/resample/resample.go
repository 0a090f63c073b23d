package resample

import (
	"errors"
	"math"
)

var (
	// ErrInvalidRatio indicates an invalid up/down ratio.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
	// ErrInvalidRate indicates an invalid input/output sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
)

// Quality controls default anti-aliasing filter settings.
type Quality int

const (
	// QualityFast prioritizes lower CPU usage.
	QualityFast Quality = iota
	// QualityBalanced is the default quality/performance trade-off.
	QualityBalanced
	// QualityBest prioritizes stopband attenuation and passband flatness.
	QualityBest
)

// ParseQuality maps "fast", "balanced" and "best" to a Quality. Unknown
// names yield QualityBalanced.
func ParseQuality(name string) Quality {
	switch name {
	case "fast":
		return QualityFast
	case "best":
		return QualityBest
	default:
		return QualityBalanced
	}
}

// Profile exposes default filter parameters for each quality mode.
type Profile struct {
	TapsPerPhase int
	CutoffScale  float64
	KaiserBeta   float64
}

// QualityProfile returns the default profile used by quality mode q.
func QualityProfile(q Quality) Profile {
	switch q {
	case QualityFast:
		return Profile{TapsPerPhase: 16, CutoffScale: 0.88, KaiserBeta: 5.0}
	case QualityBest:
		return Profile{TapsPerPhase: 64, CutoffScale: 0.96, KaiserBeta: 9.0}
	default:
		return Profile{TapsPerPhase: 32, CutoffScale: 0.92, KaiserBeta: 7.5}
	}
}

type config struct {
	quality Quality
	maxDen  int
}

// Option configures the resampler.
type Option func(*config)

// WithQuality selects a predefined anti-aliasing quality mode.
func WithQuality(q Quality) Option {
	return func(cfg *config) {
		cfg.quality = q
	}
}

// WithMaxDenominator caps denominator size for rate-ratio approximation.
// Smaller values trade ratio precision for a shorter prototype filter.
func WithMaxDenominator(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxDen = n
		}
	}
}

func newConfig(opts []Option) config {
	cfg := config{quality: QualityBalanced, maxDen: 4096}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Resampler performs rational sample-rate conversion of a single channel
// using a polyphase FIR. State carries across calls for streaming use.
type Resampler struct {
	up   int
	down int

	quality Quality
	phases  [][]float64
	nTaps   int
	maxLn   int

	phase      int
	inputIndex int
	totalIn    int
	history    []float64
	work       []float64
}

// NewRational creates a resampler for ratio up/down.
func NewRational(up, down int, opts ...Option) (*Resampler, error) {
	if up <= 0 || down <= 0 {
		return nil, ErrInvalidRatio
	}

	g := gcd(up, down)
	up /= g
	down /= g

	cfg := newConfig(opts)

	phases, nTaps, err := designPolyphaseFIR(up, down, QualityProfile(cfg.quality))
	if err != nil {
		return nil, err
	}

	maxLn := 0
	for _, p := range phases {
		maxLn = max(maxLn, len(p))
	}

	return &Resampler{
		up:      up,
		down:    down,
		quality: cfg.quality,
		phases:  phases,
		nTaps:   nTaps,
		maxLn:   maxLn,
		history: make([]float64, 0, max(0, maxLn-1)),
	}, nil
}

// NewForRates creates a resampler by approximating outRate/inRate as a ratio.
func NewForRates(inRate, outRate float64, opts ...Option) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 || math.IsNaN(inRate) || math.IsNaN(outRate) ||
		math.IsInf(inRate, 0) || math.IsInf(outRate, 0) {
		return nil, ErrInvalidRate
	}

	cfg := newConfig(opts)
	up, down := approximateRatio(outRate/inRate, cfg.maxDen)

	return NewRational(up, down, opts...)
}

// Clone returns a resampler with the same filter and fresh state. The
// prototype filter is shared, so cloning per channel is cheap.
func (r *Resampler) Clone() *Resampler {
	return &Resampler{
		up:      r.up,
		down:    r.down,
		quality: r.quality,
		phases:  r.phases,
		nTaps:   r.nTaps,
		maxLn:   r.maxLn,
		history: make([]float64, 0, cap(r.history)),
	}
}

// Reset clears internal filter state.
func (r *Resampler) Reset() {
	r.phase = 0
	r.inputIndex = 0
	r.totalIn = 0
	r.history = r.history[:0]
}

// Process converts an input block and returns a newly allocated output.
func (r *Resampler) Process(input []float64) []float64 {
	return r.AppendProcess(nil, input)
}

// AppendProcess converts input and appends the produced samples to dst.
// Once dst has grown to a steady size the call does not allocate.
func (r *Resampler) AppendProcess(dst, input []float64) []float64 {
	if len(input) == 0 {
		return dst
	}

	r.work = append(append(r.work[:0], r.history...), input...)
	work := r.work

	baseIndex := r.totalIn - len(r.history)
	lastAvail := r.totalIn + len(input) - 1

	for r.inputIndex <= lastAvail {
		var y float64
		for k, c := range r.phases[r.phase] {
			idx := r.inputIndex - k
			if idx < baseIndex {
				break
			}
			y += c * work[idx-baseIndex]
		}

		dst = append(dst, y)

		r.phase += r.down
		r.inputIndex += r.phase / r.up
		r.phase %= r.up
	}

	r.totalIn += len(input)

	keep := min(max(0, r.maxLn-1), len(work))
	r.history = append(r.history[:0], work[len(work)-keep:]...)

	return dst
}

// PredictOutputLen returns the number of samples the next Process call
// produces for inputLen samples.
func (r *Resampler) PredictOutputLen(inputLen int) int {
	if inputLen <= 0 {
		return 0
	}

	lastAvail := r.totalIn + inputLen - 1
	i := r.inputIndex
	phase := r.phase

	count := 0
	for i <= lastAvail {
		count++
		phase += r.down
		i += phase / r.up
		phase %= r.up
	}

	return count
}

// Ratio returns reduced up/down conversion factors.
func (r *Resampler) Ratio() (up, down int) {
	return r.up, r.down
}

// Quality returns the configured quality mode.
func (r *Resampler) Quality() Quality {
	return r.quality
}

// LatencyIn returns the filter group delay in input samples.
func (r *Resampler) LatencyIn() float64 {
	return float64(r.nTaps-1) / 2 / float64(r.up)
}

// LatencyOut returns the filter group delay in output samples.
func (r *Resampler) LatencyOut() int {
	return int(math.Round(float64(r.nTaps-1) / 2 / float64(r.down)))
}
