// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Sections can be cascaded
// via [Chain]; the player's three-band filter unit runs one chain per
// channel.
//
// Coefficient design lives in dsp/filter/design.
package biquad
