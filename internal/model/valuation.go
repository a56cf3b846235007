package model

import "time"

// AnnotatedPoint is one day of the valuation output. Pointer fields are nil
// where the value is undefined, which is distinct from a value of zero.
type AnnotatedPoint struct {
	Time       time.Time `json:"time"`
	Close      float64   `json:"close"`
	AgeDays    int       `json:"age_days"`
	GeoMean200 *float64  `json:"geo_mean_200,omitempty"`
	FairValue  *float64  `json:"fair_value,omitempty"`
	Deviation  *float64  `json:"deviation_index,omitempty"`
}

// AnnotatedSeries is ordered by Time ascending.
type AnnotatedSeries []AnnotatedPoint

// Window returns the points with from <= Time <= to. A zero bound is open.
// It is a display filter only and shares the backing array.
func (s AnnotatedSeries) Window(from, to time.Time) AnnotatedSeries {
	lo, hi := 0, len(s)
	if !from.IsZero() {
		for lo < hi && s[lo].Time.Before(from) {
			lo++
		}
	}
	if !to.IsZero() {
		for hi > lo && s[hi-1].Time.After(to) {
			hi--
		}
	}
	return s[lo:hi]
}

// Deviations returns every defined deviation value in order.
func (s AnnotatedSeries) Deviations() []float64 {
	out := make([]float64, 0, len(s))
	for _, p := range s {
		if p.Deviation != nil {
			out = append(out, *p.Deviation)
		}
	}
	return out
}

// Valuation is the output of the valuation pipeline for one asset.
type Valuation struct {
	Asset  string          `json:"asset"`
	Model  ModelKind       `json:"model"`
	Note   string          `json:"note"`
	Series AnnotatedSeries `json:"series"`

	// Coefficients holds the power law actually applied: the profile's fixed
	// values or the fitted ones. HasCoefficients is false when no model applied.
	Coefficients    PowerLaw `json:"coefficients"`
	HasCoefficients bool     `json:"has_coefficients"`

	CurrentPrice     float64   `json:"current_price"`
	CurrentDeviation *float64  `json:"current_deviation,omitempty"`
	AsOf             time.Time `json:"as_of"`

	// Warnings lists recoverable conditions; fields they concern are absent.
	Warnings []error `json:"-"`
}

// Indeterminate reports whether the latest deviation is undefined.
func (v *Valuation) Indeterminate() bool {
	return v == nil || v.CurrentDeviation == nil
}

// Partial reports whether any recoverable condition was hit.
func (v *Valuation) Partial() bool {
	return v != nil && len(v.Warnings) > 0
}
