// Package audio defines the pull-based stream model shared by the decoder,
// the effect units, the transport and the exporter.
//
// Every stream carries interleaved float32 samples described by a [Format].
// Decoded sources are normalized to [Canonical] (44.1 kHz, stereo, float32)
// so that effect units never see any other layout.
//
// The package also holds the error taxonomy used across the player: callers
// test for [ErrSourceNotFound], [ErrUnsupportedFormat] and friends with
// errors.Is.
package audio
