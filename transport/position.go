package transport

import (
	"math"
	"sync/atomic"
	"time"
)

// positionClock estimates the playback position from wall time. The
// position is source time: it advances at speed source-seconds per
// wall-second from the anchor set when playback started or the last seek
// happened, and never passes the source length. total is the play time at
// the current tempo and bounds seek requests only. All fields are atomics
// so Position is safe from any goroutine.
type positionClock struct {
	clock Clock

	offset  atomic.Int64 // ns of source time at the anchor
	anchor  atomic.Int64 // wall time in ns; 0 while not running
	speed   atomic.Uint64
	length  atomic.Int64 // source length, ns
	total   atomic.Int64 // play time, ns
	running atomic.Bool
}

func newPositionClock(c Clock) *positionClock {
	p := &positionClock{clock: c}
	p.speed.Store(math.Float64bits(1))
	return p
}

// setTiming sets the source length and the play time at the current
// tempo.
func (p *positionClock) setTiming(length, total time.Duration) {
	p.length.Store(int64(length))
	p.total.Store(int64(total))
}

func (p *positionClock) setSpeed(s float64) {
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		s = 1
	}
	p.speed.Store(math.Float64bits(s))
}

// Total returns the play time at the current tempo.
func (p *positionClock) Total() time.Duration { return time.Duration(p.total.Load()) }

// Length returns the source length.
func (p *positionClock) Length() time.Duration { return time.Duration(p.length.Load()) }

// Position returns offset + elapsed*speed clamped to [0, Length].
func (p *positionClock) Position() time.Duration {
	pos := time.Duration(p.offset.Load())
	if p.running.Load() {
		elapsed := p.clock.Now().UnixNano() - p.anchor.Load()
		pos += time.Duration(float64(elapsed) * math.Float64frombits(p.speed.Load()))
	}
	return p.clamp(pos)
}

// clamp bounds a source-time cursor.
func (p *positionClock) clamp(d time.Duration) time.Duration {
	return max(0, min(d, p.Length()))
}

// clampSeek bounds a seek request to [0, Total].
func (p *positionClock) clampSeek(d time.Duration) time.Duration {
	return max(0, min(d, p.Total()))
}

// start anchors the clock at pos and lets it run.
func (p *positionClock) start(pos time.Duration) {
	p.offset.Store(int64(p.clamp(pos)))
	p.anchor.Store(p.clock.Now().UnixNano())
	p.running.Store(true)
}

// hold freezes the clock at pos.
func (p *positionClock) hold(pos time.Duration) {
	p.running.Store(false)
	p.offset.Store(int64(p.clamp(pos)))
}
