package model

import "time"

// Snapshot is the per-asset result of one collection run: either a
// valuation with its classification, or the error that prevented it.
type Snapshot struct {
	Profile        AssetProfile   `json:"profile"`
	Source         string         `json:"source,omitempty"`
	Valuation      *Valuation     `json:"valuation,omitempty"`
	Classification Classification `json:"classification"`
	Err            error          `json:"-"`
	TakenAt        time.Time      `json:"taken_at"`
}

// OK reports whether the snapshot carries a valuation.
func (s *Snapshot) OK() bool {
	return s != nil && s.Err == nil && s.Valuation != nil
}
