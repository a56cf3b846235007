package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoSentinel/internal/model"
)

func ptr(f float64) *float64 { return &f }

func TestFixedThresholds_AllBoundaries(t *testing.T) {
	tests := []struct {
		x    float64
		band model.Band
	}{
		{0.1, model.BandUndershoot},
		{0.4499, model.BandUndershoot},
		{0.45, model.BandAccumulation},
		{0.8, model.BandAccumulation},
		{1.2, model.BandAccumulation},
		{1.2001, model.BandNeutral},
		{3.0, model.BandNeutral},
		{4.0, model.BandNeutral},
		{4.0001, model.BandOvershoot},
		{10.0, model.BandOvershoot},
		{0, model.BandUndershoot},
		{math.NaN(), model.BandIndeterminate},
	}
	var p FixedThresholds
	for _, tt := range tests {
		assert.Equal(t, tt.band, p.Band(tt.x), "x=%v", tt.x)
	}
}

func TestFixedThresholds_Lines(t *testing.T) {
	lines := FixedThresholds{}.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, 0.45, lines[0].Value)
	assert.Equal(t, 1.2, lines[1].Value)
	assert.Equal(t, 4.0, lines[2].Value)
}

func TestClassify_NilIsIndeterminate(t *testing.T) {
	c := Classify(FixedThresholds{}, nil)
	assert.Equal(t, model.BandIndeterminate, c.Band)

	zero := Classify(FixedThresholds{}, ptr(0))
	assert.Equal(t, model.BandUndershoot, zero.Band)
	assert.Equal(t, "ZONE L (Undershoot)", zero.Label)
	assert.Equal(t, "#28a745", zero.Color)
	assert.Equal(t, "fixed", zero.Policy)
}

func TestPercentileLines(t *testing.T) {
	history := make([]float64, 101)
	for i := range history {
		history[i] = float64(i) / 10 // 0.0 .. 10.0
	}
	p, err := NewPercentileLines(history, 10, 95)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p.Buy, 1e-12)
	assert.InDelta(t, 9.5, p.Sell, 1e-12)

	assert.Equal(t, model.BandUndershoot, p.Band(0.5))
	assert.Equal(t, model.BandNeutral, p.Band(1.0))
	assert.Equal(t, model.BandNeutral, p.Band(9.5))
	assert.Equal(t, model.BandOvershoot, p.Band(9.6))
	assert.Len(t, p.Lines(), 2)
}

func TestPercentileLines_EmptyHistory(t *testing.T) {
	p, err := NewPercentileLines(nil, 10, 90)
	require.NoError(t, err)
	assert.Equal(t, model.BandIndeterminate, p.Band(1))
	assert.Empty(t, p.Lines())
}

func TestPercentileLines_RejectsBadBounds(t *testing.T) {
	_, err := NewPercentileLines([]float64{1}, 90, 10)
	assert.Error(t, err)
	_, err = NewPercentileLines([]float64{1}, -1, 10)
	assert.Error(t, err)
}

func TestEvaluate_UsesConfiguredPolicy(t *testing.T) {
	v := &model.Valuation{
		Series: model.AnnotatedSeries{
			{Deviation: ptr(1)}, {Deviation: ptr(2)}, {}, {Deviation: ptr(3)}, {Deviation: ptr(4)}, {Deviation: ptr(5)},
		},
		CurrentDeviation: ptr(5),
	}

	fixed, err := Evaluate(model.AssetProfile{ID: "BTC-USD", Policy: model.PolicySpec{Kind: model.PolicyFixed}}, v)
	require.NoError(t, err)
	assert.Equal(t, model.BandOvershoot, fixed.Band)

	pct, err := Evaluate(model.AssetProfile{
		ID:     "ETH-USD",
		Policy: model.PolicySpec{Kind: model.PolicyPercentile, BuyPercentile: 10, SellPercentile: 99},
	}, v)
	require.NoError(t, err)
	assert.Equal(t, "percentile", pct.Policy)
	assert.Equal(t, model.BandOvershoot, pct.Band)

	_, err = Evaluate(model.AssetProfile{ID: "X", Policy: model.PolicySpec{Kind: "vibes"}}, v)
	assert.Error(t, err)
}

func TestEvaluate_IndeterminateValuation(t *testing.T) {
	c, err := Evaluate(model.AssetProfile{ID: "BTC-USD"}, &model.Valuation{})
	require.NoError(t, err)
	assert.Equal(t, model.BandIndeterminate, c.Band)
	assert.Equal(t, "N/A (Indeterminate)", c.Label)
}

func TestRanges(t *testing.T) {
	fixed := FixedThresholds{}.Ranges()
	require.Len(t, fixed, 4)
	assert.Nil(t, fixed[0].Lower)
	assert.Equal(t, 0.45, *fixed[0].Upper)
	assert.Equal(t, model.BandAccumulation, fixed[1].Band)
	assert.Equal(t, 4.0, *fixed[3].Lower)
	assert.Nil(t, fixed[3].Upper)

	history := make([]float64, 101)
	for i := range history {
		history[i] = float64(i) / 10
	}
	p, err := NewPercentileLines(history, 10, 95)
	require.NoError(t, err)
	pct := p.Ranges()
	require.Len(t, pct, 3)
	assert.Equal(t, model.BandUndershoot, pct[0].Band)
	assert.InDelta(t, 1.0, *pct[0].Upper, 1e-12)
	assert.Equal(t, model.BandNeutral, pct[1].Band)
	assert.InDelta(t, 9.5, *pct[2].Lower, 1e-12)

	empty, err := NewPercentileLines(nil, 10, 90)
	require.NoError(t, err)
	assert.Empty(t, empty.Ranges())
}

func TestUnavailable_KeepsConfiguredPolicy(t *testing.T) {
	pct := Unavailable(model.PolicySpec{Kind: model.PolicyPercentile, BuyPercentile: 5, SellPercentile: 95})
	assert.Equal(t, model.BandIndeterminate, pct.Band)
	assert.Equal(t, "percentile", pct.Policy)
	assert.Empty(t, pct.Lines)

	fixed := Unavailable(model.PolicySpec{})
	assert.Equal(t, model.BandIndeterminate, fixed.Band)
	assert.Equal(t, "fixed", fixed.Policy)
	assert.Len(t, fixed.Lines, 3)

	odd := Unavailable(model.PolicySpec{Kind: "vibes"})
	assert.Equal(t, model.BandIndeterminate, odd.Band)
	assert.Equal(t, "vibes", odd.Policy)
}
