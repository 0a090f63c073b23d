// Package meter measures the signal that reaches the output device.
//
// A [Tap] sits on the device read path and records a mono mix into an
// atomic ring buffer. An [Analyzer] reads snapshots of that ring from
// another goroutine and reports peak/RMS levels and an FFT magnitude
// spectrum.
package meter
