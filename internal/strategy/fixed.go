package strategy

import (
	"math"

	"CryptoSentinel/internal/model"
)

// Thresholds lists the upper bands, scanned top-down: a value belongs to the
// first band whose bound it strictly exceeds.
var Thresholds = []struct {
	Above float64
	Band  model.Band
}{
	{4.0, model.BandOvershoot},
	{1.2, model.BandNeutral},
}

const (
	UndershootBelow = 0.45
	AccumulationTop = 1.2
	NeutralTop      = 4.0
)

// FixedThresholds classifies against the constant 0.45 / 1.2 / 4.0 bounds.
type FixedThresholds struct{}

func (FixedThresholds) Name() string { return string(model.PolicyFixed) }

// Band maps a deviation value to its band:
//
//	x < 0.45        undershoot
//	0.45 <= x <= 1.2 accumulation
//	1.2 < x <= 4.0  neutral
//	x > 4.0         overshoot
func (FixedThresholds) Band(x float64) model.Band {
	if math.IsNaN(x) {
		return model.BandIndeterminate
	}
	for _, t := range Thresholds {
		if x > t.Above {
			return t.Band
		}
	}
	if x < UndershootBelow {
		return model.BandUndershoot
	}
	return model.BandAccumulation
}

func (FixedThresholds) Lines() []model.ReferenceLine {
	return []model.ReferenceLine{
		{Value: UndershootBelow, Label: "Buy (0.45)", Color: "green"},
		{Value: AccumulationTop, Label: "Accum (1.2)", Color: "blue"},
		{Value: NeutralTop, Label: "Sell (4.0)", Color: "red"},
	}
}

func (FixedThresholds) Ranges() []BandRange {
	lo, acc, neu := UndershootBelow, AccumulationTop, NeutralTop
	return []BandRange{
		bandRange(model.BandUndershoot, nil, &lo),
		bandRange(model.BandAccumulation, &lo, &acc),
		bandRange(model.BandNeutral, &acc, &neu),
		bandRange(model.BandOvershoot, &neu, nil),
	}
}
