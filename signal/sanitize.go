// Package signal provides the numeric hygiene policy applied at every
// boundary where a plugin's f64 value crosses into the engine's shared
// state: outputs, internal variables, and aggregated inputs.
package signal

import "math"

// Sanitize replaces NaN, infinite, and subnormal values with 0.0. Any
// other finite value passes through unchanged. This contains hardware
// or arithmetic misbehavior inside a single tick rather than letting it
// poison downstream sums (NaN) or GUI autoscale (Inf).
func Sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || isSubnormal(x) {
		return 0.0
	}
	return x
}

// isSubnormal reports whether x is a subnormal (denormalized) float64:
// nonzero, finite, and smaller in magnitude than the smallest normal
// float64.
func isSubnormal(x float64) bool {
	const smallestNormal = 2.2250738585072014e-308
	ax := math.Abs(x)
	return ax > 0 && ax < smallestNormal
}
