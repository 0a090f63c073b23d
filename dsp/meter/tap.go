package meter

import (
	"fmt"
	"math"
	"math/bits"
	"sync/atomic"

	"github.com/cwbudde/algo-fxplayer/audio"
)

// Tap records a mono mix of the most recent frames that passed through a
// stream. Writes happen on the stream's reader goroutine and never block;
// readers take lock-free snapshots.
type Tap struct {
	ring  []atomic.Uint32
	mask  uint64
	write atomic.Uint64
}

// NewTap returns a tap holding at least capacity frames. The capacity is
// rounded up to a power of two.
func NewTap(capacity int) (*Tap, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("meter tap capacity must be > 0: %d", capacity)
	}
	size := uint64(1) << bits.Len64(uint64(capacity-1))
	return &Tap{ring: make([]atomic.Uint32, size), mask: size - 1}, nil
}

// Len returns the ring capacity in frames.
func (t *Tap) Len() int { return len(t.ring) }

// Written returns the total number of frames recorded so far.
func (t *Tap) Written() uint64 { return t.write.Load() }

// Reset forgets recorded history. It must not race with Wrap readers.
func (t *Tap) Reset() {
	for i := range t.ring {
		t.ring[i].Store(0)
	}
	t.write.Store(0)
}

// Wrap returns a stream that records everything read from src.
func (t *Tap) Wrap(src audio.Stream) audio.Stream {
	return &tapStream{src: src, tap: t, channels: src.Format().Channels}
}

// Snapshot copies the most recent len(dst) frames into dst, oldest first,
// and returns how many were available.
func (t *Tap) Snapshot(dst []float64) int {
	w := t.write.Load()
	n := min(uint64(len(dst)), w, uint64(len(t.ring)))
	start := w - n
	for i := uint64(0); i < n; i++ {
		dst[i] = float64(math.Float32frombits(t.ring[(start+i)&t.mask].Load()))
	}
	return int(n)
}

type tapStream struct {
	src      audio.Stream
	tap      *Tap
	channels int
	acc      float32
	ch       int
}

func (s *tapStream) Format() audio.Format { return s.src.Format() }

func (s *tapStream) Read(buf []float32) (int, error) {
	n, err := s.src.Read(buf)

	w := s.tap.write.Load()
	scale := 1 / float32(s.channels)
	for _, v := range buf[:n] {
		s.acc += v
		s.ch++
		if s.ch == s.channels {
			s.tap.ring[w&s.tap.mask].Store(math.Float32bits(s.acc * scale))
			w++
			s.acc, s.ch = 0, 0
		}
	}
	s.tap.write.Store(w)

	return n, err
}
