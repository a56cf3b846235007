package model

// Band is a deviation-index classification.
type Band string

const (
	BandIndeterminate Band = "INDETERMINATE"
	BandUndershoot    Band = "UNDERSHOOT"
	BandAccumulation  Band = "ACCUMULATION"
	BandNeutral       Band = "NEUTRAL"
	BandOvershoot     Band = "OVERSHOOT"
)

// Label returns the zone text shown in reports.
func (b Band) Label() string {
	switch b {
	case BandUndershoot:
		return "ZONE L (Undershoot)"
	case BandAccumulation:
		return "ZONE M (Accumulation)"
	case BandNeutral:
		return "ZONE N (Neutral)"
	case BandOvershoot:
		return "ZONE H (Overshoot)"
	default:
		return "N/A (Indeterminate)"
	}
}

// Color returns the hex colour the rendering layer uses for the band.
func (b Band) Color() string {
	switch b {
	case BandUndershoot:
		return "#28a745"
	case BandAccumulation:
		return "#007bff"
	case BandNeutral:
		return "#fd7e14"
	case BandOvershoot:
		return "#dc3545"
	default:
		return "#6c757d"
	}
}

// ReferenceLine is a horizontal guide drawn on the deviation panel.
type ReferenceLine struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// Classification is the band assigned to a deviation value under a policy.
type Classification struct {
	Band   Band            `json:"band"`
	Label  string          `json:"label"`
	Color  string          `json:"color"`
	Policy string          `json:"policy"`
	Lines  []ReferenceLine `json:"lines"`
}
