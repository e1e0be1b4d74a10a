package analyzer

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// meanStd returns the mean and population standard deviation of data.
// Empty input yields zeros.
func meanStd(data []float64) (float64, float64) {
	mean, variance := meanVariance(data)
	return mean, math.Sqrt(variance)
}

// meanVariance returns the mean and population variance of data. Rounding
// can push the variance of constant data slightly below zero; it is
// clamped.
func meanVariance(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	mean, variance := stat.PopMeanVariance(data, nil)
	if variance < 0 || math.IsNaN(variance) {
		variance = 0
	}
	return mean, variance
}

// fraction returns count/total, or 0 for an empty total.
func fraction(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}
