package audio

import (
	"errors"
	"io"
)

// Stream is a pull source of interleaved float32 samples.
//
// Read fills up to len(buf) samples and returns how many were produced.
// Short reads are normal and do not signal the end of the stream; the end
// is reported as io.EOF, possibly together with a final non-zero count.
type Stream interface {
	Format() Format
	Read(buf []float32) (int, error)
}

// SeekableStream is a Stream that supports absolute repositioning by frame.
type SeekableStream interface {
	Stream
	// Seek moves the read cursor to frame. Implementations may land on an
	// earlier frame when the underlying container only seeks to block
	// boundaries; Position reports where the cursor actually is.
	Seek(frame int64) error
	// Position returns the current frame index.
	Position() int64
	// Length returns the total number of frames, or -1 if unknown.
	Length() int64
}

// ReadFull reads from s until buf is full or the stream ends. It returns
// io.EOF only when no sample was read.
func ReadFull(s Stream, buf []float32) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := s.Read(buf[total:])
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) && total > 0 {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			return total, nil
		}
	}
	return total, nil
}

// Skip returns a stream that discards the first frames of s. When s ends
// before the skip completes, the remaining skip is abandoned and the
// returned stream reports io.EOF without an error of its own.
func Skip(s Stream, frames int64) Stream {
	if frames <= 0 {
		return s
	}
	return &skipStream{src: s, remaining: frames * int64(s.Format().Channels)}
}

type skipStream struct {
	src       Stream
	remaining int64
}

func (s *skipStream) Format() Format { return s.src.Format() }

func (s *skipStream) Read(buf []float32) (int, error) {
	for s.remaining > 0 {
		chunk := buf
		if int64(len(chunk)) > s.remaining {
			chunk = chunk[:s.remaining]
		}
		n, err := s.src.Read(chunk)
		s.remaining -= int64(n)
		if err != nil {
			s.remaining = 0
			return 0, err
		}
		if n == 0 {
			return 0, nil
		}
	}
	return s.src.Read(buf)
}
