package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSMA(t *testing.T) {
	got, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got, 1e-12)

	_, err = CalculateSMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrNotEnoughData)

	_, err = CalculateSMA([]float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestRollingMean_UndefinedBeforeWindow(t *testing.T) {
	means, err := RollingMean([]float64{2, 4, 6, 8}, 3)
	require.NoError(t, err)
	require.Len(t, means, 4)
	assert.Nil(t, means[0])
	assert.Nil(t, means[1])
	require.NotNil(t, means[2])
	require.NotNil(t, means[3])
	assert.InDelta(t, 4.0, *means[2], 1e-12)
	assert.InDelta(t, 6.0, *means[3], 1e-12)
}

func TestRollingGeoMean_ConstantSeries(t *testing.T) {
	prices := make([]float64, 300)
	for i := range prices {
		prices[i] = 100
	}
	geo, err := RollingGeoMean(prices, 200)
	require.NoError(t, err)
	for i, g := range geo {
		if i < 199 {
			assert.Nil(t, g, "index %d", i)
			continue
		}
		require.NotNil(t, g, "index %d", i)
		assert.InDelta(t, 100.0, *g, 1e-9, "index %d", i)
	}
}

func TestRollingGeoMean_WithinWindowBounds(t *testing.T) {
	prices := make([]float64, 600)
	for i := range prices {
		prices[i] = 50 + 40*math.Sin(float64(i)/7) + float64(i)*0.5
	}
	geo, err := RollingGeoMean(prices, 200)
	require.NoError(t, err)
	for i := 199; i < len(prices); i++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, p := range prices[i-199 : i+1] {
			lo = math.Min(lo, p)
			hi = math.Max(hi, p)
		}
		require.NotNil(t, geo[i])
		assert.GreaterOrEqual(t, *geo[i], lo*(1-1e-12), "index %d", i)
		assert.LessOrEqual(t, *geo[i], hi*(1+1e-12), "index %d", i)
	}
}

func TestRollingGeoMean_MatchesDirectProduct(t *testing.T) {
	prices := []float64{1, 2, 4, 8}
	geo, err := RollingGeoMean(prices, 2)
	require.NoError(t, err)
	require.NotNil(t, geo[3])
	assert.InDelta(t, math.Sqrt(32), *geo[3], 1e-12)
}

func TestRollingGeoMean_RejectsNonPositive(t *testing.T) {
	_, err := RollingGeoMean([]float64{1, 0, 2}, 2)
	assert.Error(t, err)
	_, err = RollingGeoMean([]float64{1, math.NaN(), 2}, 2)
	assert.Error(t, err)
}

func TestAgeDays(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2009, 1, 2, 0, 0, 0, 0, time.UTC), -1},
		{time.Date(2009, 1, 3, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2009, 1, 3, 23, 59, 0, 0, time.UTC), 0},
		{time.Date(2009, 1, 4, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2010, 1, 3, 0, 0, 0, 0, time.UTC), 365},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AgeDays(tt.date), tt.date.String())
	}
}

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	got := DayOf(time.Date(2024, 3, 1, 2, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)
}

func TestPowerLawValue_ReferencePoint(t *testing.T) {
	got, err := PowerLawValue(5.84, -17.01, 5000)
	require.NoError(t, err)
	assert.InEpsilon(t, 39082.72396644965, got, 1e-12)
	assert.Equal(t, math.Pow(10, 5.84*math.Log10(5000)-17.01), got)

	_, err = PowerLawValue(5.84, -17.01, 0)
	assert.Error(t, err)
}

func TestPowerLawValue_MonotonicForPositiveSlope(t *testing.T) {
	prev := 0.0
	for age := 1; age <= 7000; age += 37 {
		v, err := PowerLawValue(5.84, -17.01, age)
		require.NoError(t, err)
		assert.Greater(t, v, prev, "age %d", age)
		prev = v
	}
}

func TestFitOLS_ExactLine(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{3, 5, 7, 9, 11}
	slope, intercept, err := FitOLS(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, slope, 1e-12)
	assert.InDelta(t, 1.0, intercept, 1e-12)
}

func TestFitOLS_Degenerate(t *testing.T) {
	_, _, err := FitOLS([]float64{1}, []float64{1})
	assert.ErrorIs(t, err, ErrNotEnoughData)
	_, _, err = FitOLS([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.Error(t, err)
	_, _, err = FitOLS([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func TestFitLogLog_RecoversPowerLaw(t *testing.T) {
	ages := make([]int, 0, 50)
	prices := make([]float64, 0, 50)
	for age := 1000; age < 6000; age += 100 {
		v, err := PowerLawValue(3.5, -8.2, age)
		require.NoError(t, err)
		ages = append(ages, age)
		prices = append(prices, v)
	}
	slope, intercept, err := FitLogLog(ages, prices)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, slope, 1e-9)
	assert.InDelta(t, -8.2, intercept, 1e-9)

	again, againIntercept, err := FitLogLog(ages, prices)
	require.NoError(t, err)
	assert.Equal(t, slope, again)
	assert.Equal(t, intercept, againIntercept)
}

func TestPercentile(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{25, 2},
		{50, 3},
		{90, 4.6},
		{100, 5},
	}
	for _, tt := range tests {
		got, err := Percentile(values, tt.p)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "p=%v", tt.p)
	}
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, values, "input must stay untouched")

	_, err := Percentile(nil, 50)
	assert.ErrorIs(t, err, ErrNotEnoughData)
	_, err = Percentile(values, 101)
	assert.Error(t, err)
}
