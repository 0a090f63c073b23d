package decode

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/dsp/resample"
)

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	quality resample.Quality
}

// WithQuality selects the resampler used for non-44.1 kHz files.
func WithQuality(q resample.Quality) Option {
	return func(c *openConfig) { c.quality = q }
}

// Source is an opened file normalized to audio.Canonical. It implements
// audio.SeekableStream. A Source is not safe for concurrent use.
type Source struct {
	path string
	dec  Decoder
	info Info

	rs     *resample.Stream
	out    audio.Stream
	pos    int64
	length int64
}

// Open opens path and returns a canonical-format source.
//
// It fails with audio.ErrSourceNotFound when the file is missing and with
// audio.ErrUnsupportedFormat for unknown extensions or undecodable data.
func Open(path string, opts ...Option) (*Source, error) {
	cfg := openConfig{quality: resample.QualityBalanced}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	dec, err := openDecoder(path)
	if err != nil {
		return nil, err
	}

	s, err := newSource(path, dec, cfg)
	if err != nil {
		dec.Close()
		return nil, err
	}
	return s, nil
}

func newSource(path string, dec Decoder, cfg openConfig) (*Source, error) {
	info := dec.Info()
	native := info.Format
	if err := native.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrUnsupportedFormat, err)
	}

	s := &Source{path: path, dec: dec, info: info, length: -1}

	var stream audio.Stream = &decoderStream{
		dec:    dec,
		format: audio.Format{SampleRate: native.SampleRate, Channels: native.Channels, Encoding: audio.EncodingFloat32},
	}
	if native.Channels != audio.Canonical.Channels {
		stream = audio.Remix(stream, audio.Canonical.Channels)
	}
	if native.SampleRate != audio.Canonical.SampleRate {
		rs, err := resample.NewStream(stream, float64(native.SampleRate), audio.Canonical.SampleRate,
			resample.WithQuality(cfg.quality))
		if err != nil {
			return nil, err
		}
		s.rs = rs
		stream = rs
	}
	s.out = stream

	if info.Frames >= 0 {
		rate := int64(native.SampleRate)
		s.length = (info.Frames*int64(audio.Canonical.SampleRate) + rate - 1) / rate
	}

	return s, nil
}

// Format returns audio.Canonical.
func (s *Source) Format() audio.Format { return audio.Canonical }

// Read implements audio.Stream.
func (s *Source) Read(buf []float32) (int, error) {
	n, err := s.out.Read(buf)
	s.pos += int64(n / audio.Canonical.Channels)
	return n, err
}

// Seek moves to a canonical frame. The request is translated to the raw
// stream by the ratio of the two formats' byte rates and aligned down to
// the raw block size, so Position may end up slightly before frame.
func (s *Source) Seek(frame int64) error {
	if frame < 0 {
		return fmt.Errorf("decode: negative seek position %d", frame)
	}
	if s.length >= 0 && frame > s.length {
		frame = s.length
	}

	native := s.info.Format
	canonicalBytes := frame * int64(audio.Canonical.BytesPerFrame())
	rawBytes := canonicalBytes * int64(native.AvgBytesPerSec()) / int64(audio.Canonical.AvgBytesPerSec())
	rawFrame := rawBytes / int64(native.BytesPerFrame())

	actual, err := s.dec.Seek(rawFrame)
	if err != nil {
		return fmt.Errorf("seek %s to frame %d: %w", s.info.Container, rawFrame, err)
	}
	if s.rs != nil {
		s.rs.Reset()
	}
	s.pos = actual * int64(audio.Canonical.SampleRate) / int64(native.SampleRate)
	return nil
}

// Position returns the current canonical frame.
func (s *Source) Position() int64 { return s.pos }

// Length returns the canonical frame count, or -1 if unknown.
func (s *Source) Length() int64 { return s.length }

// Frames is Length under the name used by callers that think in frames.
func (s *Source) Frames() int64 { return s.length }

// Duration returns the base play time of the file.
func (s *Source) Duration() time.Duration { return s.info.Duration() }

// Info returns the native description.
func (s *Source) Info() Info { return s.info }

// Path returns the file the source was opened from.
func (s *Source) Path() string { return s.path }

// Close releases the decoder and the file.
func (s *Source) Close() error { return s.dec.Close() }

// decoderStream adapts a Decoder to audio.Stream.
type decoderStream struct {
	dec    Decoder
	format audio.Format
}

func (d *decoderStream) Format() audio.Format { return d.format }

func (d *decoderStream) Read(buf []float32) (int, error) {
	whole := len(buf) / d.format.Channels * d.format.Channels
	if whole == 0 {
		return 0, nil
	}
	return d.dec.Read(buf[:whole])
}
