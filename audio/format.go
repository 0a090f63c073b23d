package audio

import (
	"fmt"
	"math"
	"time"
)

// Encoding identifies the sample representation of a stream.
type Encoding int

const (
	// EncodingFloat32 is 32-bit IEEE float, nominal range [-1, 1].
	EncodingFloat32 Encoding = iota
	// EncodingPCM16 is signed 16-bit integer PCM.
	EncodingPCM16
	// EncodingPCM24 is signed 24-bit integer PCM.
	EncodingPCM24
	// EncodingPCM32 is signed 32-bit integer PCM.
	EncodingPCM32
	// EncodingPCM8 is unsigned 8-bit PCM as stored in WAV files.
	EncodingPCM8
)

// BytesPerSample returns the storage size of one sample.
func (e Encoding) BytesPerSample() int {
	switch e {
	case EncodingPCM8:
		return 1
	case EncodingPCM16:
		return 2
	case EncodingPCM24:
		return 3
	default:
		return 4
	}
}

func (e Encoding) String() string {
	switch e {
	case EncodingFloat32:
		return "float32"
	case EncodingPCM16:
		return "pcm16"
	case EncodingPCM24:
		return "pcm24"
	case EncodingPCM32:
		return "pcm32"
	case EncodingPCM8:
		return "pcm8"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// EncodingForBits maps an integer PCM bit depth to its Encoding.
func EncodingForBits(bits int) (Encoding, error) {
	switch bits {
	case 8:
		return EncodingPCM8, nil
	case 16:
		return EncodingPCM16, nil
	case 24:
		return EncodingPCM24, nil
	case 32:
		return EncodingPCM32, nil
	default:
		return 0, fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedFormat, bits)
	}
}

// Format describes the sample layout of a stream. Samples are always
// interleaved by frame.
type Format struct {
	SampleRate int
	Channels   int
	Encoding   Encoding
}

// Canonical is the format every decoded source is normalized to and every
// effect unit consumes.
var Canonical = Format{SampleRate: 44100, Channels: 2, Encoding: EncodingFloat32}

// IsCanonical reports whether f equals Canonical.
func (f Format) IsCanonical() bool {
	return f == Canonical
}

// BytesPerFrame returns the size of one interleaved frame.
func (f Format) BytesPerFrame() int {
	return f.Channels * f.Encoding.BytesPerSample()
}

// AvgBytesPerSec returns the byte rate of the format.
func (f Format) AvgBytesPerSec() int {
	return f.SampleRate * f.BytesPerFrame()
}

// Duration converts a frame count into time.
func (f Format) Duration(frames int64) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / float64(f.SampleRate) * float64(time.Second))
}

// Frames converts a duration into the nearest frame count.
func (f Format) Frames(d time.Duration) int64 {
	return int64(math.Round(d.Seconds() * float64(f.SampleRate)))
}

// Validate checks that f describes a usable stream.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("audio: sample rate must be > 0: %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("audio: channel count must be > 0: %d", f.Channels)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %s", f.SampleRate, f.Channels, f.Encoding)
}
