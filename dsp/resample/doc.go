// Package resample provides rational sample-rate conversion using polyphase FIR
// filtering with anti-aliasing defaults.
//
// Quality modes:
//   - QualityFast: lower CPU, lower attenuation
//   - QualityBalanced: default mode
//   - QualityBest: higher attenuation and flatter passband
//
// [Resampler] converts a single channel and keeps state across calls.
// [Stream] wraps an interleaved audio.Stream; it is used by the decoder to
// reach the canonical rate and by the tempo and pitch units, which
// reinterpret the input rate before converting back.
package resample
