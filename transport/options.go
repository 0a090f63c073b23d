package transport

import (
	"time"

	"github.com/cwbudde/algo-fxplayer/dsp/effectchain"
	"github.com/cwbudde/algo-fxplayer/dsp/resample"
	"github.com/cwbudde/algo-fxplayer/dsp/window"
	"github.com/cwbudde/algo-fxplayer/export"
	"github.com/cwbudde/algo-fxplayer/internal/logger"
)

const (
	DefaultDebounce         = 150 * time.Millisecond
	DefaultPositionInterval = 100 * time.Millisecond
	DefaultFFTSize          = 2048

	rebuildWait = 500 * time.Millisecond
	prefillWait = 200 * time.Millisecond
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock replaces the wall clock used for the position estimate.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithDebounce sets how long UpdateSettings waits for further updates
// before rebuilding a playing chain.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

// WithPositionInterval sets the period of the position sampler.
func WithPositionInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithQuality selects the resampler quality for decoding and the tempo
// and pitch units.
func WithQuality(q resample.Quality) Option {
	return func(e *Engine) { e.quality = q }
}

// WithPrefetchFrames sets the size of the decode-ahead buffer.
func WithPrefetchFrames(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.prefetchFrames = n
		}
	}
}

// WithFFTSize sets the analysis size of Spectrum. It must be a power of
// two in [256, 16384].
func WithFFTSize(n int) Option {
	return func(e *Engine) { e.fftSize = n }
}

// WithSpectrumWindow selects the analysis window of Spectrum.
func WithSpectrumWindow(t window.Type) Option {
	return func(e *Engine) { e.window = t }
}

// WithExporter sets the exporter used by Export.
func WithExporter(x *export.Exporter) Option {
	return func(e *Engine) { e.exporter = x }
}

// WithRegistry replaces the effect unit registry used for rebuilds.
func WithRegistry(r *effectchain.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithSettings sets the initial settings snapshot.
func WithSettings(s effectchain.Settings) Option {
	return func(e *Engine) { e.settings = s.Clamped() }
}
