package resample

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-fxplayer/audio"
)

const streamChunkFrames = 1024

// Stream resamples an interleaved audio.Stream channel by channel.
//
// The input is interpreted as running at inRate regardless of the rate its
// Format reports; the output Format carries outRate. Reinterpreting the
// input rate is how tempo and pitch units speed audio up or slow it down.
//
// Filter latency is compensated: the first LatencyOut output frames are
// dropped and the tail is flushed at end of input, so the output length
// tracks inputFrames*outRate/inRate.
type Stream struct {
	src      audio.Stream
	format   audio.Format
	channels int

	rs      []*Resampler
	up      int
	down    int
	latency int

	in      []float32
	chanIn  []float64
	pending [][]float64
	readPos int

	framesIn  int64
	framesOut int64
	skip      int
	eof       bool
	flushed   bool
}

// NewStream wraps src. outRate must be an integer rate because it becomes
// the output Format's SampleRate.
func NewStream(src audio.Stream, inRate float64, outRate int, opts ...Option) (*Stream, error) {
	if err := src.Format().Validate(); err != nil {
		return nil, err
	}

	proto, err := NewForRates(inRate, float64(outRate), opts...)
	if err != nil {
		return nil, fmt.Errorf("resample stream %.2f -> %d Hz: %w", inRate, outRate, err)
	}

	return NewStreamWith(src, proto, outRate), nil
}

// NewStreamWith wraps src using clones of a prepared prototype, which lets
// callers design the filter once and apply it to many streams. proto itself
// is never mutated.
func NewStreamWith(src audio.Stream, proto *Resampler, outRate int) *Stream {
	f := src.Format()
	s := &Stream{
		src:      src,
		format:   audio.Format{SampleRate: outRate, Channels: f.Channels, Encoding: f.Encoding},
		channels: f.Channels,
		rs:       make([]*Resampler, f.Channels),
		pending:  make([][]float64, f.Channels),
		in:       make([]float32, streamChunkFrames*f.Channels),
		chanIn:   make([]float64, streamChunkFrames),
		latency:  proto.LatencyOut(),
	}
	s.up, s.down = proto.Ratio()
	for ch := range s.rs {
		s.rs[ch] = proto.Clone()
	}
	s.skip = s.latency

	return s
}

// Format returns the output format.
func (s *Stream) Format() audio.Format { return s.format }

// Ratio returns the reduced conversion ratio actually applied.
func (s *Stream) Ratio() (up, down int) { return s.up, s.down }

// Reset discards buffered audio and filter history, as needed after the
// source has been repositioned.
func (s *Stream) Reset() {
	for _, r := range s.rs {
		r.Reset()
	}
	for ch := range s.pending {
		s.pending[ch] = s.pending[ch][:0]
	}
	s.readPos = 0
	s.framesIn = 0
	s.framesOut = 0
	s.skip = s.latency
	s.eof = false
	s.flushed = false
}

// Read implements audio.Stream.
func (s *Stream) Read(buf []float32) (int, error) {
	frames := len(buf) / s.channels
	if frames == 0 {
		return 0, nil
	}

	for s.available() == 0 {
		if s.flushed {
			return 0, io.EOF
		}
		starved, err := s.fill()
		if err != nil {
			return 0, err
		}
		if starved {
			return 0, nil
		}
	}

	n := min(frames, s.available())
	for i := 0; i < n; i++ {
		for ch := 0; ch < s.channels; ch++ {
			buf[i*s.channels+ch] = float32(s.pending[ch][s.readPos+i])
		}
	}
	s.readPos += n

	return n * s.channels, nil
}

func (s *Stream) available() int {
	return len(s.pending[0]) - s.readPos
}

// fill refills the pending buffers. It reports starved when the source
// produced nothing without ending.
func (s *Stream) fill() (starved bool, err error) {
	for ch := range s.pending {
		s.pending[ch] = s.pending[ch][:0]
	}
	s.readPos = 0

	if s.eof {
		s.flush()
		return false, nil
	}

	n, err := s.src.Read(s.in)
	if n == 0 && err == nil {
		return true, nil
	}
	frames := n / s.channels
	if frames > 0 {
		s.framesIn += int64(frames)
		for ch := 0; ch < s.channels; ch++ {
			for i := 0; i < frames; i++ {
				s.chanIn[i] = float64(s.in[i*s.channels+ch])
			}
			s.pending[ch] = s.rs[ch].AppendProcess(s.pending[ch], s.chanIn[:frames])
		}
		s.trim()
	}

	if err != nil {
		if !errors.Is(err, io.EOF) {
			return false, err
		}
		s.eof = true
	}

	return false, nil
}

// flush pushes zeros through the filters to drain the delayed tail, then
// caps the total output at the ideal length.
func (s *Stream) flush() {
	pad := int(math.Ceil(s.rs[0].LatencyIn())) + 1
	zeros := make([]float64, pad)
	for ch := 0; ch < s.channels; ch++ {
		s.pending[ch] = s.rs[ch].AppendProcess(s.pending[ch], zeros)
	}
	s.trim()
	s.flushed = true
}

// trim applies the latency skip and the ideal-length cap to freshly
// produced output.
func (s *Stream) trim() {
	if s.skip > 0 {
		drop := min(s.skip, len(s.pending[0]))
		for ch := range s.pending {
			s.pending[ch] = s.pending[ch][drop:]
		}
		s.skip -= drop
	}

	limit := (s.framesIn*int64(s.up) + int64(s.down) - 1) / int64(s.down)
	if s.eof {
		if room := limit - s.framesOut; int64(len(s.pending[0])) > room {
			for ch := range s.pending {
				s.pending[ch] = s.pending[ch][:max(0, room)]
			}
		}
	}
	s.framesOut += int64(len(s.pending[0]))
}
