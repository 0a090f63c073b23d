// Package device connects the transport to the system audio output
// through oto.
package device

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/transport"
)

// DefaultReadyTimeout bounds the wait for the driver to come up.
const DefaultReadyTimeout = 5 * time.Second

// Oto is a transport.Device on the default system output. The driver is
// started on the first Open; oto allows one context per process, so
// create one Oto and share it.
type Oto struct {
	timeout time.Duration

	once  sync.Once
	ctx   *oto.Context
	err   error
	ready chan struct{}
}

// NewOto returns a device that waits at most timeout for the driver. A
// timeout <= 0 selects DefaultReadyTimeout.
func NewOto(timeout time.Duration) *Oto {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	return &Oto{timeout: timeout}
}

func (d *Oto) init() {
	ctx, ready, err := oto.NewContext(audio.Canonical.SampleRate, audio.Canonical.Channels, oto.FormatFloat32LE)
	if err != nil {
		d.err = err
		return
	}
	d.ctx, d.ready = ctx, ready
}

// Open implements transport.Device. r must yield little-endian float32
// frames in the canonical layout.
func (d *Oto) Open(r io.Reader) (transport.Sink, error) {
	d.once.Do(d.init)
	if d.err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDeviceInit, d.err)
	}

	select {
	case <-d.ready:
	case <-time.After(d.timeout):
		return nil, fmt.Errorf("%w: output not ready after %v", audio.ErrDeviceInit, d.timeout)
	}
	if err := d.ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDeviceInit, err)
	}

	return &sink{Player: d.ctx.NewPlayer(r), ctx: d.ctx}, nil
}

// Suspend pauses the whole output, for example while no engine plays.
func (d *Oto) Suspend() error {
	if d.ctx == nil {
		return errors.New("device: output not started")
	}
	return d.ctx.Suspend()
}

// Resume undoes Suspend.
func (d *Oto) Resume() error {
	if d.ctx == nil {
		return errors.New("device: output not started")
	}
	return d.ctx.Resume()
}

// sink reports context failures as player errors so the transport sees a
// driver that died under a running player.
type sink struct {
	oto.Player
	ctx *oto.Context
}

func (s *sink) Err() error {
	if err := s.Player.Err(); err != nil {
		return err
	}
	return s.ctx.Err()
}
