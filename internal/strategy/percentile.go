package strategy

import (
	"fmt"
	"math"

	"CryptoSentinel/internal/calculator"
	"CryptoSentinel/internal/model"
)

// PercentileLines derives buy and sell lines from an asset's own deviation
// history instead of fixed constants. Values strictly below the buy line are
// undershoot, strictly above the sell line overshoot, anything else neutral.
type PercentileLines struct {
	BuyPercentile  float64
	SellPercentile float64
	Buy            float64
	Sell           float64
	ready          bool
}

// NewPercentileLines computes the lines from history. With no defined history
// the policy classifies every value as indeterminate.
func NewPercentileLines(history []float64, buyPct, sellPct float64) (*PercentileLines, error) {
	if buyPct < 0 || sellPct > 100 || buyPct >= sellPct {
		return nil, fmt.Errorf("percentile lines: need 0 <= buy < sell <= 100, got %v / %v", buyPct, sellPct)
	}
	p := &PercentileLines{BuyPercentile: buyPct, SellPercentile: sellPct}
	if len(history) == 0 {
		return p, nil
	}
	var err error
	if p.Buy, err = calculator.Percentile(history, buyPct); err != nil {
		return nil, fmt.Errorf("buy line: %w", err)
	}
	if p.Sell, err = calculator.Percentile(history, sellPct); err != nil {
		return nil, fmt.Errorf("sell line: %w", err)
	}
	p.ready = true
	return p, nil
}

func (p *PercentileLines) Name() string { return string(model.PolicyPercentile) }

func (p *PercentileLines) Band(x float64) model.Band {
	if !p.ready || math.IsNaN(x) {
		return model.BandIndeterminate
	}
	switch {
	case x < p.Buy:
		return model.BandUndershoot
	case x > p.Sell:
		return model.BandOvershoot
	default:
		return model.BandNeutral
	}
}

func (p *PercentileLines) Lines() []model.ReferenceLine {
	if !p.ready {
		return nil
	}
	return []model.ReferenceLine{
		{Value: p.Buy, Label: fmt.Sprintf("Buy (P%.0f=%.2f)", p.BuyPercentile, p.Buy), Color: "green"},
		{Value: p.Sell, Label: fmt.Sprintf("Sell (P%.0f=%.2f)", p.SellPercentile, p.Sell), Color: "red"},
	}
}

// Ranges is empty until the lines have been computed from history.
func (p *PercentileLines) Ranges() []BandRange {
	if !p.ready {
		return nil
	}
	buy, sell := p.Buy, p.Sell
	return []BandRange{
		bandRange(model.BandUndershoot, nil, &buy),
		bandRange(model.BandNeutral, &buy, &sell),
		bandRange(model.BandOvershoot, &sell, nil),
	}
}
