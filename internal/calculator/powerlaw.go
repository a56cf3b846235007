package calculator

import (
	"errors"
	"math"
)

// PowerLawValue evaluates 10^(slope*log10(ageDays) + intercept).
func PowerLawValue(slope, intercept float64, ageDays int) (float64, error) {
	if ageDays <= 0 {
		return 0, errors.New("age must be positive")
	}
	return math.Pow(10, slope*math.Log10(float64(ageDays))+intercept), nil
}

// FitOLS fits y = slope*x + intercept by ordinary least squares.
// Sums are taken around the means so results do not depend on input magnitude.
func FitOLS(x, y []float64) (slope, intercept float64, err error) {
	if len(x) != len(y) {
		return 0, 0, errors.New("x and y length mismatch")
	}
	n := len(x)
	if n < 2 {
		return 0, 0, ErrNotEnoughData
	}
	var mx, my float64
	for i := 0; i < n; i++ {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		sxx += dx * dx
		sxy += dx * (y[i] - my)
	}
	if sxx == 0 {
		return 0, 0, errors.New("x has zero variance")
	}
	slope = sxy / sxx
	intercept = my - slope*mx
	return slope, intercept, nil
}

// FitLogLog regresses log10(price) on log10(age).
func FitLogLog(ages []int, prices []float64) (slope, intercept float64, err error) {
	if len(ages) != len(prices) {
		return 0, 0, errors.New("ages and prices length mismatch")
	}
	x := make([]float64, len(ages))
	y := make([]float64, len(prices))
	for i := range ages {
		if ages[i] <= 0 || !(prices[i] > 0) {
			return 0, 0, errors.New("ages and prices must be positive")
		}
		x[i] = math.Log10(float64(ages[i]))
		y[i] = math.Log10(prices[i])
	}
	return FitOLS(x, y)
}
