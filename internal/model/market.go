package model

import "time"

// PricePoint is a single daily close.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// PriceSeries holds the raw daily history of one asset as delivered by a source.
// Points may be unsorted, duplicated or carry unusable prices until cleaned.
type PriceSeries struct {
	Asset     string       `json:"asset"`
	Source    string       `json:"source"`
	Points    []PricePoint `json:"points"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Len returns the number of raw points.
func (s PriceSeries) Len() int { return len(s.Points) }

// Empty reports whether the series carries no points at all.
func (s PriceSeries) Empty() bool { return len(s.Points) == 0 }
