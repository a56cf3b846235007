package calculator

import (
	"math"
	"time"
)

// GenesisDate is the epoch asset age is measured from.
var GenesisDate = time.Date(2009, time.January, 3, 0, 0, 0, 0, time.UTC)

// DayOf truncates t to its UTC calendar date.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AgeDays returns whole days elapsed between GenesisDate and t, floored.
// Dates on or before the genesis date yield values <= 0.
func AgeDays(t time.Time) int {
	return int(math.Floor(t.Sub(GenesisDate).Hours() / 24))
}
