package transport

import (
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-fxplayer/audio"
)

const (
	defaultPrefetchFrames = 16384
	prefetchChunkFrames   = 1024
	prefetchIdle          = 5 * time.Millisecond
)

// prefetcher pulls the chain output on its own goroutine into a ring so
// the device read path only copies memory.
type prefetcher struct {
	src      audio.Stream
	channels int
	ring     *ring

	wake chan struct{}
	quit chan struct{}
	done chan struct{}

	eof atomic.Bool
	err atomic.Pointer[error]
}

func newPrefetcher(src audio.Stream, frames int) *prefetcher {
	ch := src.Format().Channels
	return &prefetcher{
		src:      src,
		channels: ch,
		ring:     newRing(max(frames, 2*prefetchChunkFrames) * ch),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (p *prefetcher) start() { go p.run() }

func (p *prefetcher) run() {
	defer close(p.done)

	buf := make([]float32, prefetchChunkFrames*p.channels)
	idle := 0
	for {
		select {
		case <-p.quit:
			return
		default:
		}

		if p.ring.Free() < len(buf) {
			select {
			case <-p.quit:
				return
			case <-p.wake:
			case <-time.After(prefetchIdle):
			}
			continue
		}

		n, err := p.src.Read(buf)
		n -= n % p.channels
		pushed := 0
		for pushed < n {
			pushed += p.ring.Push(buf[pushed:n])
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.err.Store(&err)
			}
			p.eof.Store(true)
			return
		}
		if n == 0 {
			// A stream that keeps returning nothing is treated as ended.
			if idle++; idle > 1000 {
				p.eof.Store(true)
				return
			}
			continue
		}
		idle = 0
	}
}

// fill waits until at least frames are queued, the source ended or the
// timeout expired.
func (p *prefetcher) fill(frames int, timeout time.Duration) {
	want := min(frames*p.channels, p.ring.Cap())
	deadline := time.Now().Add(timeout)
	for p.ring.Len() < want && !p.eof.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

// stop ends the goroutine and waits for it. Safe to call more than once.
func (p *prefetcher) stop() {
	select {
	case <-p.quit:
	default:
		close(p.quit)
	}
	<-p.done
}

// Err returns the decode error that ended prefetching, if any.
func (p *prefetcher) Err() error {
	if e := p.err.Load(); e != nil {
		return *e
	}
	return nil
}

// Format implements audio.Stream for the consumer side.
func (p *prefetcher) Format() audio.Format { return p.src.Format() }

// Read implements audio.Stream for the device side. It never blocks: an
// underrun yields silence, the end of the source yields io.EOF once the
// ring is drained.
func (p *prefetcher) Read(buf []float32) (int, error) {
	whole := len(buf) / p.channels * p.channels
	n := p.ring.Pop(buf[:whole])
	select {
	case p.wake <- struct{}{}:
	default:
	}

	if n > 0 {
		return n, nil
	}
	if p.eof.Load() && p.ring.Len() == 0 {
		return 0, io.EOF
	}
	clear(buf[:whole])
	return whole, nil
}
