// Package design computes biquad coefficients for the shelving and peaking
// equalizer sections (RBJ audio-EQ cookbook formulas).
//
// Invalid frequencies (outside (0, Nyquist)) produce pass-through
// coefficients instead of an error so that a clamped parameter set can never
// silence the signal.
package design
