// Package valuation turns a raw daily price history into a deviation-index
// series: a trailing 200-day geometric-mean cost basis, a power-law fair
// value and the product of the two price ratios.
//
// Run is pure and holds no state, so it can be called concurrently for
// different assets.
package valuation

import (
	"fmt"

	"CryptoSentinel/internal/calculator"
	"CryptoSentinel/internal/model"
)

const (
	// GeoMeanWindow is the trailing window of the cost-basis geometric mean.
	GeoMeanWindow = 200

	// MinRegressionPoints is the fewest aged points a dynamic fit accepts.
	MinRegressionPoints = 11
)

const (
	noteFixed        = "Model: Power Law (Fixed)"
	noteRegression   = "Model: Dynamic Reg (Beta %.2f)"
	noteInsufficient = "Insufficient Data"
)

// Run computes the annotated series and summary for one asset.
//
// Hard failures return a nil Valuation: an empty input or one with no usable
// price (ErrMalformedInput), or no point after the genesis date
// (ErrInsufficientData). Too few points for the geometric mean or the
// regression only add a warning and leave the affected fields nil.
func Run(series model.PriceSeries, profile model.AssetProfile) (*model.Valuation, error) {
	if series.Empty() {
		return nil, fmt.Errorf("%s: %w: empty price series", profile.ID, ErrMalformedInput)
	}

	cleaned := Clean(series.Points)
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%s: %w: %w: no usable price among %d entries",
			profile.ID, ErrMalformedInput, ErrInsufficientData, series.Len())
	}

	closes := make([]float64, len(cleaned))
	for i, p := range cleaned {
		closes[i] = p.Close
	}
	geo, err := calculator.RollingGeoMean(closes, GeoMeanWindow)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", profile.ID, ErrMalformedInput, err)
	}

	v := &model.Valuation{Asset: profile.ID, Model: profile.Model}
	if len(cleaned) < GeoMeanWindow {
		v.Warnings = append(v.Warnings, fmt.Errorf("geometric mean needs %d points, have %d: %w",
			GeoMeanWindow, len(cleaned), ErrInsufficientData))
	}

	points := make(model.AnnotatedSeries, 0, len(cleaned))
	for i, p := range cleaned {
		age := calculator.AgeDays(p.Time)
		if age <= 0 {
			continue
		}
		points = append(points, model.AnnotatedPoint{
			Time:       p.Time,
			Close:      p.Close,
			AgeDays:    age,
			GeoMean200: geo[i],
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: %w: no point after %s",
			profile.ID, ErrInsufficientData, calculator.GenesisDate.Format("2006-01-02"))
	}

	if err := applyFairValue(v, points, profile); err != nil {
		return nil, fmt.Errorf("%s: %w", profile.ID, err)
	}

	for i := range points {
		p := &points[i]
		if p.GeoMean200 == nil || p.FairValue == nil {
			continue
		}
		d := (p.Close / *p.GeoMean200) * (p.Close / *p.FairValue)
		p.Deviation = &d
	}

	last := points[len(points)-1]
	v.Series = points
	v.CurrentPrice = last.Close
	v.CurrentDeviation = last.Deviation
	v.AsOf = last.Time
	return v, nil
}

func applyFairValue(v *model.Valuation, points model.AnnotatedSeries, profile model.AssetProfile) error {
	var law model.PowerLaw
	switch profile.Model {
	case model.ModelFixed:
		law = profile.PowerLaw
		v.Note = noteFixed
	case model.ModelRegression:
		if len(points) < MinRegressionPoints {
			v.Note = noteInsufficient
			v.Warnings = append(v.Warnings, fmt.Errorf("regression needs %d points, have %d: %w",
				MinRegressionPoints, len(points), ErrInsufficientData))
			return nil
		}
		ages := make([]int, len(points))
		prices := make([]float64, len(points))
		for i, p := range points {
			ages[i] = p.AgeDays
			prices[i] = p.Close
		}
		slope, intercept, err := calculator.FitLogLog(ages, prices)
		if err != nil {
			// only reachable when every age is equal
			v.Note = noteInsufficient
			v.Warnings = append(v.Warnings, fmt.Errorf("regression: %v: %w", err, ErrInsufficientData))
			return nil
		}
		law = model.PowerLaw{Slope: slope, Intercept: intercept}
		v.Note = fmt.Sprintf(noteRegression, slope)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModel, profile.Model)
	}

	for i := range points {
		fv, err := calculator.PowerLawValue(law.Slope, law.Intercept, points[i].AgeDays)
		if err != nil {
			return err
		}
		points[i].FairValue = &fv
	}
	v.Coefficients = law
	v.HasCoefficients = true
	return nil
}
