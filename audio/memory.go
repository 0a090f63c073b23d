package audio

import (
	"fmt"
	"io"
)

// Memory is a SeekableStream over an in-memory sample slice.
type Memory struct {
	format  Format
	samples []float32
	pos     int
}

// NewMemory wraps samples, which must hold whole frames of format.
func NewMemory(format Format, samples []float32) (*Memory, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if len(samples)%format.Channels != 0 {
		return nil, fmt.Errorf("audio: %d samples is not a whole number of %d-channel frames",
			len(samples), format.Channels)
	}
	return &Memory{format: format, samples: samples}, nil
}

// Format returns the stream format.
func (m *Memory) Format() Format { return m.format }

// Read implements Stream.
func (m *Memory) Read(buf []float32) (int, error) {
	if m.pos >= len(m.samples) {
		return 0, io.EOF
	}
	n := copy(buf, m.samples[m.pos:])
	m.pos += n
	return n, nil
}

// Seek implements SeekableStream. Positions beyond the end clamp to the end.
func (m *Memory) Seek(frame int64) error {
	if frame < 0 {
		return fmt.Errorf("audio: negative seek position %d", frame)
	}
	pos := frame * int64(m.format.Channels)
	if pos > int64(len(m.samples)) {
		pos = int64(len(m.samples))
	}
	m.pos = int(pos)
	return nil
}

// Position implements SeekableStream.
func (m *Memory) Position() int64 {
	return int64(m.pos / m.format.Channels)
}

// Length implements SeekableStream.
func (m *Memory) Length() int64 {
	return int64(len(m.samples) / m.format.Channels)
}

// Close is a no-op so Memory can stand in for decoded files.
func (m *Memory) Close() error { return nil }
