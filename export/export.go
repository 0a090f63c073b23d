// Package export renders a file through an effect chain to disk.
//
// Rendering is offline: the exporter opens its own source and builds its
// own chain, so it never shares state with a live transport. WAV targets
// are written directly. Compressed targets are rendered to an intermediate
// WAV first and then handed to ffmpeg; when ffmpeg is not available the
// target is rewritten to .wav instead.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/audio/decode"
	"github.com/cwbudde/algo-fxplayer/audio/encode"
	"github.com/cwbudde/algo-fxplayer/dsp/core"
	"github.com/cwbudde/algo-fxplayer/dsp/dither"
	"github.com/cwbudde/algo-fxplayer/dsp/effectchain"
	"github.com/cwbudde/algo-fxplayer/dsp/resample"
	"github.com/cwbudde/algo-fxplayer/internal/logger"
)

const (
	defaultChunkFrames = 8192

	// Share of the progress range spent rendering when a second encode
	// pass follows.
	renderShare = 80.0

	maxIdleReads = 1000
)

// Request describes one export job.
type Request struct {
	SourcePath string
	Target     string
	Settings   effectchain.Settings
	Format     Format
}

// Result reports what was written.
type Result struct {
	// Path is the file actually produced; it differs from the requested
	// target when a compressed export fell back to WAV.
	Path     string
	Frames   int64
	Duration time.Duration
	FellBack bool
}

// ProgressFunc receives monotone progress in [0, 100] with a short status.
type ProgressFunc func(percent float64, status string)

// Exporter renders requests. The zero value is not usable; call New.
type Exporter struct {
	log         *logger.Logger
	ffmpeg      string
	quality     resample.Quality
	tempDir     string
	chunkFrames int
	dither      []dither.Option
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(e *Exporter) { e.log = l }
}

// WithFFmpeg sets the ffmpeg command or path used for compressed targets.
func WithFFmpeg(path string) Option {
	return func(e *Exporter) { e.ffmpeg = path }
}

// WithQuality selects the resampler quality for decoding and output rate
// conversion.
func WithQuality(q resample.Quality) Option {
	return func(e *Exporter) { e.quality = q }
}

// WithTempDir sets where intermediate files are created. The default is
// the target's directory.
func WithTempDir(dir string) Option {
	return func(e *Exporter) { e.tempDir = dir }
}

// WithChunkFrames sets the render block size.
func WithChunkFrames(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.chunkFrames = n
		}
	}
}

// WithDither sets the dither applied when reducing to 16 or 24 bits. By
// default samples are rounded without noise.
func WithDither(t dither.Type, shaping dither.Preset) Option {
	return func(e *Exporter) {
		e.dither = []dither.Option{dither.WithType(t), dither.WithShaping(shaping)}
	}
}

// New creates an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		log:         logger.Discard(),
		ffmpeg:      "ffmpeg",
		quality:     resample.QualityBalanced,
		chunkFrames: defaultChunkFrames,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Export renders req. progress may be nil.
func (e *Exporter) Export(ctx context.Context, req Request, progress ProgressFunc) (Result, error) {
	report := monotone(progress)

	if err := req.Format.Validate(); err != nil {
		return Result{}, err
	}

	target := req.Target
	ext := strings.ToLower(filepath.Ext(target))
	var transcoder *encode.Transcoder

	switch {
	case ext == ".wav" || ext == ".wave":
	case encode.Compressed(target):
		path, err := encode.LookFFmpeg(e.ffmpeg)
		if err != nil {
			fallback := strings.TrimSuffix(target, filepath.Ext(target)) + ".wav"
			e.log.Info("ffmpeg unavailable (%v), writing %s instead of %s", err, fallback, target)
			target = fallback
			break
		}
		transcoder = &encode.Transcoder{Path: path}
	default:
		return Result{}, fmt.Errorf("%w: export target %q", audio.ErrUnsupportedFormat, ext)
	}

	res := Result{Path: target, FellBack: target != req.Target}

	if transcoder == nil {
		frames, err := e.renderTo(ctx, target, req, func(p float64) { report(p, "rendering") })
		if err != nil {
			return Result{}, err
		}
		res.Frames = frames
		res.Duration = framesToDuration(frames, req.Format.SampleRate)
		report(100, "done")
		e.log.Info("exported %s (%v)", target, res.Duration)
		return res, nil
	}

	tmp := e.intermediatePath(target)
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.log.Error("remove intermediate %s: %v", tmp, err)
		}
	}()

	frames, err := e.renderTo(ctx, tmp, req, func(p float64) { report(p*renderShare/100, "rendering") })
	if err != nil {
		return Result{}, err
	}

	report(renderShare, "encoding")
	if err := transcoder.Transcode(ctx, tmp, target); err != nil {
		os.Remove(target)
		return Result{}, err
	}

	res.Frames = frames
	res.Duration = framesToDuration(frames, req.Format.SampleRate)
	report(100, "done")
	e.log.Info("exported %s via ffmpeg (%v)", target, res.Duration)
	return res, nil
}

func (e *Exporter) intermediatePath(target string) string {
	dir := e.tempDir
	if dir == "" {
		dir = filepath.Dir(target)
	}
	return filepath.Join(dir, ".fxplay-"+uuid.New().String()+".wav")
}

// renderTo writes the processed source to a WAV file at path and returns
// the number of output frames. A partial file is removed on failure.
func (e *Exporter) renderTo(ctx context.Context, path string, req Request, progress func(float64)) (frames int64, err error) {
	src, err := decode.Open(req.SourcePath, decode.WithQuality(e.quality))
	if err != nil {
		return 0, err
	}
	defer src.Close()

	chain, err := effectchain.Build(req.Settings, src,
		effectchain.WithContext(effectchain.Context{Quality: e.quality}))
	if err != nil {
		return 0, err
	}
	if err := chain.Validate(); err != nil {
		return 0, err
	}
	e.log.Debug("export chain: %v", chain.Units())

	out, err := e.convert(chain.Output(), req.Format)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("export: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("export: close %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	w, err := encode.NewWAVWriter(f, req.Format.wav(), encode.WithDither(e.dither...))
	if err != nil {
		return 0, err
	}

	expected := expectedFrames(src.Length(), chain.Settings(), req.Format.SampleRate)
	buf := make([]float32, e.chunkFrames*req.Format.Channels)
	idle := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		n, rerr := out.Read(buf)
		n -= n % req.Format.Channels
		if n > 0 {
			idle = 0
			if err := w.Write(buf[:n]); err != nil {
				return 0, err
			}
			if expected > 0 {
				progress(min(99, 100*float64(w.Frames())/float64(expected)))
			}
		} else if idle++; idle > maxIdleReads {
			return 0, errors.New("export: render: stream stopped producing samples")
		}

		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return 0, fmt.Errorf("export: render: %w", rerr)
		}
	}

	if err := w.Close(); err != nil {
		return 0, err
	}
	return w.Frames(), nil
}

// convert adapts the canonical chain output to the requested rate and
// channel count.
func (e *Exporter) convert(s audio.Stream, f Format) (audio.Stream, error) {
	if rate := s.Format().SampleRate; rate != f.SampleRate {
		rs, err := resample.NewStream(s, float64(rate), f.SampleRate, resample.WithQuality(e.quality))
		if err != nil {
			return nil, fmt.Errorf("export: output resampler: %w", err)
		}
		s = rs
	}
	return audio.Remix(s, f.Channels), nil
}

// expectedFrames estimates the output length for progress reporting.
// Only tempo changes the length; pitch keeps it.
func expectedFrames(canonical int64, s effectchain.Settings, rate int) int64 {
	if canonical <= 0 {
		return 0
	}
	speed := s.Tempo
	if speed <= 0 {
		speed = 1
	}
	return int64(float64(canonical) / speed * float64(rate) / float64(audio.Canonical.SampleRate))
}

func framesToDuration(frames int64, rate int) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(rate)
}

// monotone wraps fn so reported percentages never decrease.
func monotone(fn ProgressFunc) ProgressFunc {
	last := 0.0
	return func(p float64, status string) {
		if fn == nil {
			return
		}
		p = core.Clamp(p, 0, 100)
		if p < last {
			p = last
		}
		last = p
		fn(p, status)
	}
}
