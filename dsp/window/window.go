// Package window generates the analysis windows used by the spectrum meter.
package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	Rectangular Type = iota
	Hann
	Hamming
	Blackman
	BlackmanHarris
	FlatTop

	typeCount
)

var typeNames = [typeCount]string{
	"rectangular", "hann", "hamming", "blackman", "blackman-harris", "flattop",
}

// Cosine-sum coefficients, a0 - a1 cos + a2 cos2 - ...
var typeCoeffs = [typeCount][]float64{
	Rectangular:    {1},
	Hann:           {0.5, -0.5},
	Hamming:        {0.54, -0.46},
	Blackman:       {0.42, -0.5, 0.08},
	BlackmanHarris: {0.35875, -0.48829, 0.14128, -0.01168},
	FlatTop:        {0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368},
}

// String returns the name accepted by ParseType.
func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// Valid reports whether t is a known window.
func (t Type) Valid() bool { return t >= 0 && t < typeCount }

// ParseType maps a window name (case-insensitive) to a Type.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	return Hann, fmt.Errorf("window: unknown type %q", name)
}

// Generate returns size coefficients of the periodic form of t, the form
// that sums to a constant under hop = size/len(coeffs) overlap and suits
// FFT analysis.
func Generate(t Type, size int) ([]float64, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("window: invalid type %d", t)
	}
	if size <= 0 {
		return nil, fmt.Errorf("window: size must be > 0: %d", size)
	}

	coeffs := typeCoeffs[t]
	out := make([]float64, size)
	for n := range out {
		phase := 2 * math.Pi * float64(n) / float64(size)
		var sum float64
		for k, c := range coeffs {
			sum += c * math.Cos(float64(k)*phase)
		}
		out[n] = sum
	}
	return out, nil
}

// CoherentGain is the mean coefficient, the amplitude a bin-centred tone
// keeps after windowing.
func CoherentGain(w []float64) float64 {
	if len(w) == 0 {
		return 0
	}
	return sum(w) / float64(len(w))
}

// ENBW returns the equivalent noise bandwidth of w in bins.
func ENBW(w []float64) float64 {
	s := sum(w)
	if s == 0 {
		return 0
	}
	return float64(len(w)) * vecmath.DotProduct(w, w) / (s * s)
}

func sum(w []float64) float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}
