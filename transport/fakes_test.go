package transport

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-fxplayer/internal/testutil"
)

// fakeClock is advanced by hand.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeDevice hands out fakeSinks. With drain set, sinks consume their
// reader as fast as possible and stop at EOF; otherwise they play until
// closed without reading.
type fakeDevice struct {
	mu      sync.Mutex
	drain   bool
	openErr error
	sinks   []*fakeSink
}

func (d *fakeDevice) Open(r io.Reader) (Sink, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	s := &fakeSink{r: r, drain: d.drain, done: make(chan struct{})}
	d.sinks = append(d.sinks, s)
	return s, nil
}

// live counts sinks that are open and playing.
func (d *fakeDevice) live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.sinks {
		if s.IsPlaying() {
			n++
		}
	}
	return n
}

func (d *fakeDevice) opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sinks)
}

func (d *fakeDevice) last() *fakeSink {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sinks) == 0 {
		return nil
	}
	return d.sinks[len(d.sinks)-1]
}

type fakeSink struct {
	r     io.Reader
	drain bool

	mu      sync.Mutex
	playing bool
	closed  bool
	err     error
	read    int64

	once sync.Once
	done chan struct{}
}

func (s *fakeSink) Play() {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
	if s.drain {
		go s.consume()
	}
}

func (s *fakeSink) consume() {
	buf := make([]byte, 8192)
	for {
		select {
		case <-s.done:
			return
		default:
		}
		n, err := s.r.Read(buf)
		s.mu.Lock()
		s.read += int64(n)
		s.mu.Unlock()
		if err != nil {
			s.mu.Lock()
			s.playing = false
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			s.mu.Unlock()
			return
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func (s *fakeSink) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

func (s *fakeSink) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing && !s.closed
}

func (s *fakeSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.playing = false
	s.mu.Unlock()
	s.once.Do(func() { close(s.done) })
	return nil
}

// fail simulates the device dropping out with err.
func (s *fakeSink) fail(err error) {
	s.mu.Lock()
	s.playing = false
	s.err = err
	s.mu.Unlock()
}

func (s *fakeSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// newTestEngine builds an engine on a fresh fake device with a fast
// sampler and registers cleanup.
func newTestEngine(t *testing.T, dev *fakeDevice, opts ...Option) *Engine {
	t.Helper()
	if dev == nil {
		dev = &fakeDevice{}
	}
	opts = append([]Option{WithPositionInterval(10 * time.Millisecond), WithPrefetchFrames(4096)}, opts...)
	e, err := New(dev, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// toneFile writes a stereo 44.1 kHz 16-bit sine of the given length.
func toneFile(t *testing.T, d time.Duration) string {
	t.Helper()
	frames := int(d.Seconds() * 44100)
	return testutil.WriteWAV(t, "tone.wav",
		testutil.WAVSpec{SampleRate: 44100, Channels: 2, BitDepth: 16},
		testutil.Sine(440, 44100, 0.5, frames, 2))
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
