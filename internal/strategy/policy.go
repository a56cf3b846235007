// Package strategy maps deviation-index values to bands. Fixed thresholds and
// percentile lines are separate policies; an asset uses exactly one.
package strategy

import (
	"fmt"

	"CryptoSentinel/internal/model"
)

// Policy classifies deviation values.
type Policy interface {
	Name() string
	Band(x float64) model.Band
	Lines() []model.ReferenceLine
	Ranges() []BandRange
}

// BandRange is the deviation interval one band covers under a policy. A nil
// bound is open.
type BandRange struct {
	Band  model.Band `json:"band"`
	Label string     `json:"label"`
	Color string     `json:"color"`
	Lower *float64   `json:"lower,omitempty"`
	Upper *float64   `json:"upper,omitempty"`
}

func bandRange(b model.Band, lower, upper *float64) BandRange {
	return BandRange{Band: b, Label: b.Label(), Color: b.Color(), Lower: lower, Upper: upper}
}

// ForProfile builds the policy configured for an asset. Percentile lines are
// computed from the valuation's defined deviation history.
func ForProfile(spec model.PolicySpec, v *model.Valuation) (Policy, error) {
	switch spec.Kind {
	case model.PolicyFixed, "":
		return FixedThresholds{}, nil
	case model.PolicyPercentile:
		var history []float64
		if v != nil {
			history = v.Series.Deviations()
		}
		return NewPercentileLines(history, spec.BuyPercentile, spec.SellPercentile)
	default:
		return nil, fmt.Errorf("unknown band policy %q", spec.Kind)
	}
}

// Classify assigns a band to a possibly undefined deviation value. A nil value
// is indeterminate and never confused with a genuine zero.
func Classify(p Policy, deviation *float64) model.Classification {
	band := model.BandIndeterminate
	if deviation != nil {
		band = p.Band(*deviation)
	}
	return model.Classification{
		Band:   band,
		Label:  band.Label(),
		Color:  band.Color(),
		Policy: p.Name(),
		Lines:  p.Lines(),
	}
}

// Unavailable is the classification of an asset whose valuation could not be
// produced. It keeps the asset's configured policy name.
func Unavailable(spec model.PolicySpec) model.Classification {
	p, err := ForProfile(spec, nil)
	if err != nil {
		band := model.BandIndeterminate
		return model.Classification{Band: band, Label: band.Label(), Color: band.Color(), Policy: string(spec.Kind)}
	}
	return Classify(p, nil)
}

// Evaluate classifies the latest deviation of a valuation under the asset's policy.
func Evaluate(profile model.AssetProfile, v *model.Valuation) (model.Classification, error) {
	p, err := ForProfile(profile.Policy, v)
	if err != nil {
		return model.Classification{}, fmt.Errorf("%s: %w", profile.ID, err)
	}
	var current *float64
	if v != nil {
		current = v.CurrentDeviation
	}
	return Classify(p, current), nil
}
