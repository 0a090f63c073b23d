//go:build fastmath

package effects

import (
	"github.com/meko-christian/algo-approx"
)

// mathTanh computes tanh(x) from a fast exponential.
// Uses the identity: tanh(x) = 1 - 2/(e^(2x)+1)
func mathTanh(x float64) float64 {
	switch {
	case x > 20:
		return 1
	case x < -20:
		return -1
	}
	return 1 - 2/(approx.FastExp(2*x)+1)
}

// mathExp computes e^x using fast approximation.
func mathExp(x float64) float64 {
	return approx.FastExp(x)
}
