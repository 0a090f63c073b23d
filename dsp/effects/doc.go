// Package effects provides the player's effect units.
//
// Each unit implements [Unit]: it is configured once through functional
// options and wraps a pull stream with Apply. Per-channel state (LFO
// phase, delay lines, envelopes, filter memories) lives in the stream
// returned by Apply, never in the unit, so a unit can be applied again
// after a seek without carrying stale state.
//
// Units:
//   - Tempo: rate reinterpretation plus resampling (pitch and speed move
//     together).
//   - Pitch: crossfaded delay-line heads (duration unchanged).
//   - Tremolo, Vibrato, Chorus, Flanger, Phaser: LFO modulation.
//   - Gate, Compressor: envelope-follower dynamics.
//   - Saturation, Distortion, Bitcrusher: waveshaping and quantization.
//   - Reverb, Echo: feedback delay lines.
//   - Filter: three-band shelving/peaking EQ.
//   - Volume: scalar gain.
//
// Build with -tags fastmath to replace the waveshaper transcendental
// functions with algo-approx approximations.
package effects
