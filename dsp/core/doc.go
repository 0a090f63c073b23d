// Package core holds small numeric and buffer helpers shared by the DSP
// packages: clamping, dB conversion, envelope time constants and
// float32/float64 sample conversion.
package core
