// Package fxmath provides the rounding primitives shared by the pricing
// engine. All quoting math is plain float64; results must stay reproducible
// across repricings, so every rounding step goes through these helpers.
package fxmath

import "math"

// RoundDP rounds x to dp decimal places.
func RoundDP(x float64, dp int) float64 {
	p := math.Pow10(dp)
	return math.Round(x*p) / p
}

// SnapToGrid rounds x to the nearest multiple of step.
func SnapToGrid(x, step float64) float64 {
	if step == 0 {
		return x
	}
	return math.Round(x/step) * step
}

// RoundToNearestHalf rounds x to the nearest 0.5.
func RoundToNearestHalf(x float64) float64 {
	return math.Round(x*2) / 2
}

// RoundToHalfPip snaps a price to the nearest half pip for the given
// pip-size denominator (100 for JPY-quote pairs, 10000 otherwise).
func RoundToHalfPip(price, decimalPlaces float64) float64 {
	if decimalPlaces == 0 {
		return price
	}
	halfPip := 0.5 / decimalPlaces
	return SnapToGrid(price, halfPip)
}
