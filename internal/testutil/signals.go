package testutil

import (
	"math"
	"math/rand"
)

// Sine generates frames of an interleaved sine wave, identical on every
// channel.
func Sine(freqHz, sampleRate, amplitude float64, frames, channels int) []float32 {
	out := make([]float32, frames*channels)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := 0; i < frames; i++ {
		v := float32(amplitude * math.Sin(step*float64(i)))
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = v
		}
	}
	return out
}

// Noise generates interleaved white noise with a fixed seed.
func Noise(seed int64, amplitude float64, frames, channels int) []float32 {
	out := make([]float32, frames*channels)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = float32((rng.Float64()*2 - 1) * amplitude)
	}
	return out
}

// Ramp returns frames whose left channel carries the frame index scaled by
// step and whose remaining channels carry its negation. It makes channel
// routing and frame offsets visible in tests.
func Ramp(frames, channels int, step float64) []float32 {
	out := make([]float32, frames*channels)
	for i := 0; i < frames; i++ {
		v := float32(float64(i) * step)
		out[i*channels] = v
		for ch := 1; ch < channels; ch++ {
			out[i*channels+ch] = -v
		}
	}
	return out
}

// DC generates a constant interleaved signal.
func DC(value float32, frames, channels int) []float32 {
	out := make([]float32, frames*channels)
	for i := range out {
		out[i] = value
	}
	return out
}
