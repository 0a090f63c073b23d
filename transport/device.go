package transport

import (
	"io"
	"time"
)

// Device opens output sinks. Sinks read little-endian float32 frames in
// the canonical layout from r.
type Device interface {
	Open(r io.Reader) (Sink, error)
}

// Sink is one open output stream. IsPlaying turns false when the reader
// is exhausted or the device stopped on its own; Err then reports why, if
// anything went wrong.
type Sink interface {
	Play()
	Pause()
	IsPlaying() bool
	Err() error
	Close() error
}

// Clock supplies wall-clock time to the position estimate.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
