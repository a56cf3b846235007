package collector

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"CryptoSentinel/internal/calculator"
	"CryptoSentinel/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
// With no Points set it synthesizes Days of closes following the asset's
// power law, ending today.
type MockSource struct {
	Points []model.PricePoint
	Err    error
	Days   int

	calls atomic.Int32
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchHistory(_ context.Context, profile model.AssetProfile) (model.PriceSeries, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return model.PriceSeries{}, m.Err
	}
	points := m.Points
	if points == nil {
		points = generateMockHistory(profile, m.Days, time.Now().UTC())
	}
	return model.PriceSeries{Asset: profile.ID, Source: m.Name(), Points: points, FetchedAt: time.Now().UTC()}, nil
}

// Calls returns how many times FetchHistory ran.
func (m *MockSource) Calls() int { return int(m.calls.Load()) }

func generateMockHistory(profile model.AssetProfile, days int, end time.Time) []model.PricePoint {
	if days <= 0 {
		days = 1000
	}
	slope, intercept := profile.PowerLaw.Slope, profile.PowerLaw.Intercept
	if slope == 0 {
		slope, intercept = 5.84, -17.01
	}
	end = calculator.DayOf(end)
	points := make([]model.PricePoint, days)
	for i := 0; i < days; i++ {
		t := end.AddDate(0, 0, -(days - 1 - i))
		fair, err := calculator.PowerLawValue(slope, intercept, calculator.AgeDays(t))
		if err != nil {
			fair = 1
		}
		// a slow oscillation around fair value so the bands move
		points[i] = model.PricePoint{Time: t, Close: fair * (1 + 0.5*math.Sin(float64(i)/90))}
	}
	return points
}
