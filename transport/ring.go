package transport

import (
	"math/bits"
	"sync/atomic"
)

// ring is a single-producer single-consumer float32 queue. Push is called
// only by the prefetch goroutine, Pop only by the device reader; neither
// blocks.
type ring struct {
	buf   []float32
	mask  uint64
	read  atomic.Uint64
	write atomic.Uint64
}

func newRing(capacity int) *ring {
	size := uint64(1) << bits.Len64(uint64(max(capacity, 2)-1))
	return &ring{buf: make([]float32, size), mask: size - 1}
}

func (r *ring) Cap() int { return len(r.buf) }

// Len returns the number of queued samples.
func (r *ring) Len() int {
	return int(r.write.Load() - r.read.Load())
}

// Free returns the number of samples that can be pushed.
func (r *ring) Free() int { return len(r.buf) - r.Len() }

// Push queues as much of p as fits and returns the count.
func (r *ring) Push(p []float32) int {
	w := r.write.Load()
	n := min(len(p), len(r.buf)-int(w-r.read.Load()))
	for i := 0; i < n; i++ {
		r.buf[(w+uint64(i))&r.mask] = p[i]
	}
	r.write.Store(w + uint64(n))
	return n
}

// Pop dequeues up to len(p) samples.
func (r *ring) Pop(p []float32) int {
	rd := r.read.Load()
	n := min(len(p), int(r.write.Load()-rd))
	for i := 0; i < n; i++ {
		p[i] = r.buf[(rd+uint64(i))&r.mask]
	}
	r.read.Store(rd + uint64(n))
	return n
}
