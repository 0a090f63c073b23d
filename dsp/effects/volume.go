package effects

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/dsp/core"
)

// MaxVolume bounds the gain multiplier.
const MaxVolume = 4.0

// Volume applies a scalar gain.
type Volume struct {
	toggle
	gain float64
}

// NewVolume creates a volume unit with gain in [0, MaxVolume].
func NewVolume(gain float64) (*Volume, error) {
	if err := checkRange("volume", gain, 0, MaxVolume); err != nil {
		return nil, err
	}
	return &Volume{gain: gain}, nil
}

// Gain returns the multiplier.
func (v *Volume) Gain() float64 { return v.gain }

// Identity reports whether the gain is close enough to unity to be skipped.
func (v *Volume) Identity() bool {
	return core.WithinDeadZone(v.gain, 1, 0.01)
}

// Apply implements Unit.
func (v *Volume) Apply(src audio.Stream) audio.Stream {
	if !v.Enabled() {
		return src
	}
	return &volumeStream{src: src, gain: v.gain}
}

// volumeStream scales whole blocks; it has no per-frame state, so any read
// length works.
type volumeStream struct {
	src     audio.Stream
	gain    float64
	scratch []float64
}

func (s *volumeStream) Format() audio.Format { return s.src.Format() }

func (s *volumeStream) Read(buf []float32) (int, error) {
	n, err := s.src.Read(buf)
	if n > 0 {
		s.scratch = core.EnsureLen(s.scratch, n)
		core.Widen(s.scratch, buf[:n])
		vecmath.ScaleBlockInPlace(s.scratch, s.gain)
		core.Narrow(buf[:n], s.scratch)
	}
	return n, err
}
