package calculator

import (
	"errors"
	"math"
)

// ErrNotEnoughData is returned when a window is longer than the input.
var ErrNotEnoughData = errors.New("not enough data")

// CalculateSMA computes the simple moving average of the given values over the specified period.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, ErrNotEnoughData
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// RollingMean returns the trailing mean at every index. Entries before
// index window-1 are nil. Each window is summed directly so rounding does
// not accumulate along long series.
func RollingMean(values []float64, window int) ([]*float64, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	out := make([]*float64, len(values))
	for i := window - 1; i < len(values); i++ {
		m, err := CalculateSMA(values[:i+1], window)
		if err != nil {
			return nil, err
		}
		out[i] = &m
	}
	return out, nil
}

// RollingGeoMean returns the trailing geometric mean at every index, computed
// as exp(mean(ln p)) to stay clear of overflow on long series. Entries before
// index window-1 are nil. Every price must be finite and positive.
func RollingGeoMean(prices []float64, window int) ([]*float64, error) {
	logs := make([]float64, len(prices))
	for i, p := range prices {
		if !(p > 0) || math.IsInf(p, 0) {
			return nil, errors.New("prices must be finite and positive")
		}
		logs[i] = math.Log(p)
	}
	means, err := RollingMean(logs, window)
	if err != nil {
		return nil, err
	}
	for i, m := range means {
		if m == nil {
			continue
		}
		g := math.Exp(*m)
		means[i] = &g
	}
	return means, nil
}
