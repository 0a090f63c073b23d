package export

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-fxplayer/audio"
	"github.com/cwbudde/algo-fxplayer/audio/encode"
)

// ErrInvalidFormat is returned for output formats outside the supported
// rates, channel counts and bit depths.
var ErrInvalidFormat = errors.New("export: invalid output format")

// SampleRates lists the accepted output rates.
var SampleRates = []int{22050, 44100, 48000, 96000}

// Format is the requested output layout. BitDepth 32 writes IEEE float.
type Format struct {
	SampleRate int `json:"sampleRate" yaml:"sampleRate"`
	Channels   int `json:"channels" yaml:"channels"`
	BitDepth   int `json:"bitDepth" yaml:"bitDepth"`
}

// DefaultFormat is 44.1 kHz stereo 16-bit.
func DefaultFormat() Format {
	return Format{SampleRate: audio.Canonical.SampleRate, Channels: 2, BitDepth: 16}
}

// Validate checks f against the supported output matrix.
func (f Format) Validate() error {
	rateOK := false
	for _, r := range SampleRates {
		if f.SampleRate == r {
			rateOK = true
			break
		}
	}
	if !rateOK {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrInvalidFormat, f.Channels)
	}
	switch f.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d-bit", ErrInvalidFormat, f.BitDepth)
	}
	return nil
}

func (f Format) wav() encode.WAVFormat {
	return encode.WAVFormat{SampleRate: f.SampleRate, Channels: f.Channels, BitDepth: f.BitDepth}
}
