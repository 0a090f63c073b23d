package delay

import (
	"fmt"
	"math"
)

// Line is a circular delay line of float64 samples.
//
// Delays are counted from the write head: Read(1) returns the most recently
// written sample and Read(Len()) the oldest one, which is the slot the next
// Write overwrites.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line of fixed size.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// ForDuration returns a line long enough to hold seconds of audio at
// sampleRate. The size is never below one sample.
func ForDuration(seconds, sampleRate float64) (*Line, error) {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, fmt.Errorf("delay duration must be >= 0 and finite: %f", seconds)
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("delay sample rate must be > 0 and finite: %f", sampleRate)
	}
	return New(max(1, int(math.Ceil(seconds*sampleRate))))
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads an integer delay in samples.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	readPos := (d.writePos - delay%size + size) % size
	return d.buffer[readPos]
}

// ReadLinear reads a fractional delay by linear interpolation between the
// two neighbouring taps. The delay is clamped to [1, Len()-1]; lines shorter
// than two samples fall back to Read(1).
func (d *Line) ReadLinear(delay float64) float64 {
	size := len(d.buffer)
	if size < 2 {
		return d.Read(1)
	}
	if delay < 1 || math.IsNaN(delay) {
		delay = 1
	}
	if maxDelay := float64(size - 1); delay > maxDelay {
		delay = maxDelay
	}

	p := int(delay)
	t := delay - float64(p)
	x0 := d.Read(p)
	x1 := d.Read(p + 1)
	return x0 + t*(x1-x0)
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
