package valuation

import (
	"math"
	"sort"

	"CryptoSentinel/internal/calculator"
	"CryptoSentinel/internal/model"
)

// Clean normalizes raw points to UTC calendar dates, drops zero timestamps and
// non-finite or non-positive prices, sorts ascending and keeps the last
// occurrence of each date.
func Clean(points []model.PricePoint) []model.PricePoint {
	kept := make([]model.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Time.IsZero() || math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			continue
		}
		kept = append(kept, model.PricePoint{Time: calculator.DayOf(p.Time), Close: p.Close})
	}

	// Stable sort keeps input order among equal dates, so the last of each run wins.
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Time.Before(kept[j].Time) })

	out := make([]model.PricePoint, 0, len(kept))
	for i := range kept {
		if i+1 < len(kept) && kept[i+1].Time.Equal(kept[i].Time) {
			continue
		}
		out = append(out, kept[i])
	}
	return out
}
