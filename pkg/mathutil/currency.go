// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/consistency-planner/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// RoundUp rounds a value up to the next cent. Values already on a cent are
// left alone so float noise does not add a cent.
func RoundUp(val float64) float64 {
	scaled := val * constants.DecimalPrecision
	if math.Abs(scaled-math.Round(scaled)) < 1e-9 {
		return math.Round(scaled) / constants.DecimalPrecision
	}
	return math.Ceil(scaled) / constants.DecimalPrecision
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// Finite replaces NaN and infinities with zero.
func Finite(val float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0
	}
	return val
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Min returns the minimum of two float64 values
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Shortfall returns how far actual is below target, never negative.
func Shortfall(target, actual float64) float64 {
	return Max(0, target-actual)
}

// ClampInt limits n to the inclusive range [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// CeilDiv returns ceil(amount / rate) as a day count. A non-positive amount
// needs zero days; a non-positive rate can never reach the amount and returns -1.
func CeilDiv(amount, rate float64) int {
	if amount <= 0 {
		return 0
	}
	if rate <= 0 {
		return -1
	}
	return int(math.Ceil(amount/rate - 1e-9))
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}
