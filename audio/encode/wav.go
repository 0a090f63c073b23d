// Package encode writes rendered audio to disk: WAV directly through
// go-audio/wav, compressed containers through an ffmpeg subprocess.
package encode

import (
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-fxplayer/dsp/dither"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// ErrBitDepth is returned for sample sizes the WAV writer does not produce.
var ErrBitDepth = errors.New("encode: unsupported bit depth")

// WAVFormat describes the file a WAVWriter produces. A BitDepth of 32
// selects IEEE float samples; 16 and 24 are integer PCM.
type WAVFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Validate reports whether the writer can produce f.
func (f WAVFormat) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("encode: invalid sample rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("encode: invalid channel count %d", f.Channels)
	}
	switch f.BitDepth {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrBitDepth, f.BitDepth)
	}
}

// WAVOption configures a WAVWriter.
type WAVOption func(*wavConfig)

type wavConfig struct {
	dither []dither.Option
}

// WithDither adds dither noise and noise shaping when reducing to integer
// PCM. Float output ignores it.
func WithDither(opts ...dither.Option) WAVOption {
	return func(c *wavConfig) { c.dither = append(c.dither, opts...) }
}

// WAVWriter streams interleaved float32 samples into a WAV file.
type WAVWriter struct {
	enc    *wav.Encoder
	format WAVFormat
	quant  *dither.Quantizer // nil for float output
	buf    *goaudio.IntBuffer
	frames int64
	closed bool
}

// NewWAVWriter starts a WAV file on w. The header is finalized by Close.
func NewWAVWriter(w io.WriteSeeker, f WAVFormat, opts ...WAVOption) (*WAVWriter, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var cfg wavConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	tag := wavFormatPCM
	var quant *dither.Quantizer
	if f.BitDepth == 32 {
		tag = wavFormatFloat
	} else {
		var err error
		quant, err = dither.New(f.BitDepth, f.Channels, cfg.dither...)
		if err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
	}

	return &WAVWriter{
		enc:    wav.NewEncoder(w, f.SampleRate, f.BitDepth, f.Channels, tag),
		format: f,
		quant:  quant,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: f.Channels, SampleRate: f.SampleRate},
			SourceBitDepth: f.BitDepth,
		},
	}, nil
}

// Format returns the file format being written.
func (w *WAVWriter) Format() WAVFormat { return w.format }

// Frames returns the number of frames written so far.
func (w *WAVWriter) Frames() int64 { return w.frames }

// Write appends whole interleaved frames. Integer formats are clipped to
// [-1, 1] and rounded, with dither if configured; float output is written
// unchanged.
func (w *WAVWriter) Write(samples []float32) error {
	if w.closed {
		return errors.New("encode: write after close")
	}
	if len(samples)%w.format.Channels != 0 {
		return fmt.Errorf("encode: %d samples is not a whole number of %d-channel frames",
			len(samples), w.format.Channels)
	}
	if len(samples) == 0 {
		return nil
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	if w.quant != nil {
		w.quant.Quantize(w.buf.Data, samples)
	} else {
		for i, v := range samples {
			w.buf.Data[i] = Quantize(v, w.format.BitDepth)
		}
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("encode: write wav: %w", err)
	}
	w.frames += int64(len(samples) / w.format.Channels)
	return nil
}

// Close patches the RIFF sizes. It does not close the underlying writer.
func (w *WAVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("encode: finalize wav: %w", err)
	}
	return nil
}

// Quantize maps a float sample to the integer the WAV encoder stores for
// bits. For 32 bits that is the IEEE float bit pattern.
func Quantize(v float32, bits int) int {
	if bits == 32 {
		return int(int32(math.Float32bits(v)))
	}
	x := math.Max(-1, math.Min(1, float64(v)))
	full := float64(int64(1)<<(bits-1)) - 1
	return int(math.Round(x * full))
}
