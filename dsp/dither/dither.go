// Package dither reduces float samples to integer PCM for export, with
// optional dither noise and error-feedback noise shaping.
package dither

import (
	"fmt"
	"strings"
)

// Type selects the probability distribution of the dither noise.
type Type int

const (
	// None rounds without noise.
	None Type = iota
	// Rectangular adds uniform noise of one LSB peak.
	Rectangular
	// Triangular adds TPDF noise, the usual choice for final export.
	Triangular
	// Gaussian adds normal noise with a standard deviation of one LSB.
	Gaussian

	typeCount
)

var typeNames = [typeCount]string{"none", "rpdf", "tpdf", "gaussian"}

// String returns the short name accepted by ParseType.
func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool { return t >= 0 && t < typeCount }

// ParseType maps "none", "rpdf", "tpdf" and "gaussian" (case-insensitive)
// to a Type.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	return None, fmt.Errorf("dither: unknown type %q", name)
}

// Preset identifies a noise-shaping filter.
type Preset int

const (
	ShapingOff Preset = iota
	ShapingEFB        // first-order error feedback
	Shaping2SC        // second-order highpass
	Shaping3FC        // F-weighted, 3rd order
	Shaping9FC        // F-weighted, 9th order
	ShapingSBM        // super bit mapping curve, 12th order

	presetCount
)

var presetNames = [presetCount]string{"off", "efb", "2sc", "3fc", "9fc", "sbm"}

var presetCoeffs = [presetCount][]float64{
	ShapingOff: nil,
	ShapingEFB: {1},
	Shaping2SC: {1.0, -0.5},
	Shaping3FC: {1.623, -0.982, 0.109},
	Shaping9FC: {
		2.412, -3.370, 3.937, -4.174, 3.353,
		-2.205, 1.281, -0.569, 0.0847,
	},
	ShapingSBM: {
		1.47933, -1.59032, 1.64436, -1.36613,
		0.926704, -0.557931, 0.26786, -0.106726,
		0.028516, 0.00123066, -0.00616555, 0.003067,
	},
}

// String returns the short name accepted by ParsePreset.
func (p Preset) String() string {
	if p.Valid() {
		return presetNames[p]
	}
	return fmt.Sprintf("Preset(%d)", p)
}

// Valid reports whether p is a known preset.
func (p Preset) Valid() bool { return p >= 0 && p < presetCount }

// Coefficients returns a copy of the error-feedback coefficients, nil for
// ShapingOff.
func (p Preset) Coefficients() []float64 {
	if !p.Valid() || len(presetCoeffs[p]) == 0 {
		return nil
	}
	return append([]float64(nil), presetCoeffs[p]...)
}

// ParsePreset maps a preset name (case-insensitive) to a Preset.
func ParsePreset(name string) (Preset, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range presetNames {
		if n == name {
			return Preset(i), nil
		}
	}
	return ShapingOff, fmt.Errorf("dither: unknown shaping preset %q", name)
}
