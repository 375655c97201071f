package models

import "math"

// NormCDF is the standard normal cumulative distribution function.
func NormCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// ProbAbove estimates the probability that the underlying settles above level
// at expiration, assuming driftless lognormal dynamics at the given implied
// volatility. Returns false when an estimate cannot be made.
func ProbAbove(spot, level, iv, tYears float64) (float64, bool) {
	if spot <= 0 || level <= 0 || iv <= 0 || tYears <= 0 {
		return 0, false
	}

	d2 := (math.Log(spot/level) - 0.5*iv*iv*tYears) / (iv * math.Sqrt(tYears))
	return NormCDF(d2), true
}

// ProbBelow estimates the probability that the underlying settles below level
// at expiration.
func ProbBelow(spot, level, iv, tYears float64) (float64, bool) {
	p, ok := ProbAbove(spot, level, iv, tYears)
	if !ok {
		return 0, false
	}

	return 1.0 - p, true
}

// ProbBetween estimates the probability that the underlying settles inside
// (lower, upper) at expiration. Used for the iron condor profit zone.
func ProbBetween(spot, lower, upper, iv, tYears float64) (float64, bool) {
	if upper <= lower {
		return 0, false
	}

	belowUpper, ok := ProbBelow(spot, upper, iv, tYears)
	if !ok {
		return 0, false
	}

	belowLower, ok := ProbBelow(spot, lower, iv, tYears)
	if !ok {
		return 0, false
	}

	p := belowUpper - belowLower
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}

	return p, true
}
