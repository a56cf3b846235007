package valuation

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoSentinel/internal/calculator"
	"CryptoSentinel/internal/model"
)

var (
	fixedProfile = model.AssetProfile{
		ID:       "BTC-USD",
		Model:    model.ModelFixed,
		PowerLaw: model.PowerLaw{Slope: 5.84, Intercept: -17.01},
	}
	regressionProfile = model.AssetProfile{
		ID:    "ETH-USD",
		Model: model.ModelRegression,
	}
	seriesStart = time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
)

func dailySeries(start time.Time, prices []float64) model.PriceSeries {
	pts := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		pts[i] = model.PricePoint{Time: start.AddDate(0, 0, i), Close: p}
	}
	return model.PriceSeries{Asset: "TEST", Points: pts}
}

func constant(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func trending(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 200 * math.Exp(float64(i)/400) * (1 + 0.1*math.Sin(float64(i)/9))
	}
	return out
}

func TestRun_ConstantPriceGeoMean(t *testing.T) {
	v, err := Run(dailySeries(seriesStart, constant(300, 100)), fixedProfile)
	require.NoError(t, err)
	require.Len(t, v.Series, 300)
	assert.Empty(t, v.Warnings)

	for i, p := range v.Series {
		if i < GeoMeanWindow-1 {
			assert.Nil(t, p.GeoMean200, "index %d", i)
			assert.Nil(t, p.Deviation, "index %d", i)
			continue
		}
		require.NotNil(t, p.GeoMean200, "index %d", i)
		assert.InDelta(t, 100.0, *p.GeoMean200, 1e-9)
		require.NotNil(t, p.Deviation, "index %d", i)
	}
}

func TestRun_DeviationFormula(t *testing.T) {
	v, err := Run(dailySeries(seriesStart, trending(400)), fixedProfile)
	require.NoError(t, err)
	for _, p := range v.Series[GeoMeanWindow-1:] {
		require.NotNil(t, p.Deviation)
		want := (p.Close / *p.GeoMean200) * (p.Close / *p.FairValue)
		assert.InEpsilon(t, want, *p.Deviation, 1e-12)
	}
}

func TestRun_Exactly199Entries(t *testing.T) {
	v, err := Run(dailySeries(seriesStart, trending(199)), fixedProfile)
	require.NoError(t, err)
	require.Len(t, v.Series, 199)

	for _, p := range v.Series {
		assert.Nil(t, p.GeoMean200)
		assert.Nil(t, p.Deviation)
		assert.NotNil(t, p.FairValue)
	}
	assert.True(t, v.Indeterminate())
	assert.Nil(t, v.CurrentDeviation)
	require.Len(t, v.Warnings, 1)
	assert.ErrorIs(t, v.Warnings[0], ErrInsufficientData)
	assert.Equal(t, v.Series[198].Close, v.CurrentPrice)
}

func TestRun_RegressionTenEntries(t *testing.T) {
	v, err := Run(dailySeries(seriesStart, trending(10)), regressionProfile)
	require.NoError(t, err)
	require.Len(t, v.Series, 10)

	for i, p := range v.Series {
		assert.Nil(t, p.FairValue)
		assert.Nil(t, p.Deviation)
		assert.Equal(t, calculator.AgeDays(seriesStart.AddDate(0, 0, i)), p.AgeDays)
	}
	assert.False(t, v.HasCoefficients)
	assert.Equal(t, "Insufficient Data", v.Note)
	assert.True(t, v.Indeterminate())

	var fitWarned bool
	for _, w := range v.Warnings {
		assert.ErrorIs(t, w, ErrInsufficientData)
		if strings.Contains(w.Error(), "regression") {
			fitWarned = true
		}
	}
	assert.True(t, fitWarned, "expected a regression warning")
}

func TestRun_RegressionElevenEntriesFits(t *testing.T) {
	v, err := Run(dailySeries(seriesStart, trending(11)), regressionProfile)
	require.NoError(t, err)
	assert.True(t, v.HasCoefficients)
	for _, p := range v.Series {
		assert.NotNil(t, p.FairValue)
	}
	assert.Contains(t, v.Note, "Dynamic Reg (Beta ")
}

func TestRun_RegressionDeterministic(t *testing.T) {
	s := dailySeries(seriesStart, trending(700))
	a, err := Run(s, regressionProfile)
	require.NoError(t, err)
	b, err := Run(s, regressionProfile)
	require.NoError(t, err)

	assert.Equal(t, a.Coefficients, b.Coefficients)
	require.NotNil(t, a.CurrentDeviation)
	assert.Equal(t, *a.CurrentDeviation, *b.CurrentDeviation)
}

func TestRun_RegressionRecoversExactPowerLaw(t *testing.T) {
	pts := make([]model.PricePoint, 0, 400)
	for i := 0; i < 400; i++ {
		day := seriesStart.AddDate(0, 0, i)
		p, err := calculator.PowerLawValue(4.2, -11.5, calculator.AgeDays(day))
		require.NoError(t, err)
		pts = append(pts, model.PricePoint{Time: day, Close: p})
	}
	v, err := Run(model.PriceSeries{Points: pts}, regressionProfile)
	require.NoError(t, err)
	assert.InDelta(t, 4.2, v.Coefficients.Slope, 1e-6)
	assert.InDelta(t, -11.5, v.Coefficients.Intercept, 1e-5)
}

func TestRun_FixedFairValueReference(t *testing.T) {
	day := calculator.GenesisDate.AddDate(0, 0, 5000)
	v, err := Run(dailySeries(day, []float64{42000}), fixedProfile)
	require.NoError(t, err)
	require.Len(t, v.Series, 1)

	p := v.Series[0]
	assert.Equal(t, 5000, p.AgeDays)
	require.NotNil(t, p.FairValue)
	assert.Equal(t, math.Pow(10, 5.84*math.Log10(5000)-17.01), *p.FairValue)
	assert.InEpsilon(t, 39082.72396644965, *p.FairValue, 1e-12)
	assert.Equal(t, "Model: Power Law (Fixed)", v.Note)
	assert.Equal(t, fixedProfile.PowerLaw, v.Coefficients)
}

func TestRun_FixedFairValueMonotonic(t *testing.T) {
	v, err := Run(dailySeries(seriesStart, trending(500)), fixedProfile)
	require.NoError(t, err)
	for i := 1; i < len(v.Series); i++ {
		assert.Greater(t, *v.Series[i].FairValue, *v.Series[i-1].FairValue)
		assert.Greater(t, v.Series[i].AgeDays, v.Series[i-1].AgeDays)
	}
}

// Doubling every price doubles the cost basis, but a fixed power law does not
// move, so the index doubles. A fitted law absorbs the scale and the index stays put.
func TestRun_UniformRescaling(t *testing.T) {
	base := trending(450)
	doubled := make([]float64, len(base))
	for i, p := range base {
		doubled[i] = 2 * p
	}

	t.Run("fixed", func(t *testing.T) {
		a, err := Run(dailySeries(seriesStart, base), fixedProfile)
		require.NoError(t, err)
		b, err := Run(dailySeries(seriesStart, doubled), fixedProfile)
		require.NoError(t, err)
		for i := GeoMeanWindow - 1; i < len(a.Series); i++ {
			assert.InEpsilon(t, 2*(*a.Series[i].GeoMean200), *b.Series[i].GeoMean200, 1e-9)
			assert.Equal(t, *a.Series[i].FairValue, *b.Series[i].FairValue)
			assert.InEpsilon(t, 2*(*a.Series[i].Deviation), *b.Series[i].Deviation, 1e-9)
		}
	})

	t.Run("regression", func(t *testing.T) {
		a, err := Run(dailySeries(seriesStart, base), regressionProfile)
		require.NoError(t, err)
		b, err := Run(dailySeries(seriesStart, doubled), regressionProfile)
		require.NoError(t, err)
		assert.InDelta(t, a.Coefficients.Slope, b.Coefficients.Slope, 1e-9)
		assert.InDelta(t, a.Coefficients.Intercept+math.Log10(2), b.Coefficients.Intercept, 1e-9)
		for i := GeoMeanWindow - 1; i < len(a.Series); i++ {
			assert.InEpsilon(t, 2*(*a.Series[i].FairValue), *b.Series[i].FairValue, 1e-9)
			assert.InEpsilon(t, *a.Series[i].Deviation, *b.Series[i].Deviation, 1e-9)
		}
	})
}

func TestRun_CleaningRules(t *testing.T) {
	d := func(n int) time.Time { return seriesStart.AddDate(0, 0, n) }
	raw := model.PriceSeries{Points: []model.PricePoint{
		{Time: d(3), Close: 30},
		{Time: d(1), Close: 10},
		{Time: d(2), Close: -5},
		{Time: d(2), Close: math.NaN()},
		{Time: d(1).Add(6 * time.Hour), Close: 11}, // same day, later in input: wins
		{Time: time.Time{}, Close: 99},
		{Time: d(4), Close: math.Inf(1)},
		{Time: d(0), Close: 5},
	}}
	v, err := Run(raw, fixedProfile)
	require.NoError(t, err)

	require.Len(t, v.Series, 3)
	assert.Equal(t, d(0), v.Series[0].Time)
	assert.Equal(t, 5.0, v.Series[0].Close)
	assert.Equal(t, d(1), v.Series[1].Time)
	assert.Equal(t, 11.0, v.Series[1].Close)
	assert.Equal(t, d(3), v.Series[2].Time)
	assert.Equal(t, 30.0, v.CurrentPrice)
	assert.Equal(t, d(3), v.AsOf)
}

func TestRun_DropsPointsBeforeGenesis(t *testing.T) {
	start := calculator.GenesisDate.AddDate(0, 0, -2)
	v, err := Run(dailySeries(start, constant(5, 1)), fixedProfile)
	require.NoError(t, err)
	require.Len(t, v.Series, 2)
	assert.Equal(t, 1, v.Series[0].AgeDays)
}

func TestRun_HardFailures(t *testing.T) {
	_, err := Run(model.PriceSeries{}, fixedProfile)
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = Run(dailySeries(seriesStart, []float64{0, -1, math.NaN()}), fixedProfile)
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Run(dailySeries(calculator.GenesisDate.AddDate(0, 0, -10), constant(5, 1)), fixedProfile)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.NotErrorIs(t, err, ErrMalformedInput)

	_, err = Run(dailySeries(seriesStart, constant(5, 1)), model.AssetProfile{ID: "X", Model: "quadratic"})
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRun_ConcurrentAssets(t *testing.T) {
	s := dailySeries(seriesStart, trending(400))
	want, err := Run(s, regressionProfile)
	require.NoError(t, err)

	done := make(chan *model.Valuation, 8)
	for i := 0; i < 8; i++ {
		go func() {
			v, _ := Run(s, regressionProfile)
			done <- v
		}()
	}
	for i := 0; i < 8; i++ {
		got := <-done
		require.NotNil(t, got)
		assert.Equal(t, *want.CurrentDeviation, *got.CurrentDeviation)
	}
}
