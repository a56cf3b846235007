package recorder

import (
	"time"

	"CryptoSentinel/internal/model"
)

// SnapshotRecord is the scalar summary of one asset valuation. The annotated
// series is never stored; it is recomputed from source data on demand.
type SnapshotRecord struct {
	Timestamp time.Time
	Asset     string
	Source    string
	Price     float64
	Deviation *float64
	Band      model.Band
	Note      string
	Slope     *float64
	Intercept *float64
}

// BandChange records an asset moving from one band to another.
type BandChange struct {
	Timestamp time.Time
	Asset     string
	From      model.Band
	To        model.Band
	Deviation *float64
}

// NewSnapshotRecord summarizes a successful snapshot. It returns nil for a
// snapshot without valuation.
func NewSnapshotRecord(s *model.Snapshot) *SnapshotRecord {
	if !s.OK() {
		return nil
	}
	v := s.Valuation
	rec := &SnapshotRecord{
		Timestamp: s.TakenAt,
		Asset:     s.Profile.ID,
		Source:    s.Source,
		Price:     v.CurrentPrice,
		Deviation: v.CurrentDeviation,
		Band:      s.Classification.Band,
		Note:      v.Note,
	}
	if v.HasCoefficients {
		slope, intercept := v.Coefficients.Slope, v.Coefficients.Intercept
		rec.Slope, rec.Intercept = &slope, &intercept
	}
	return rec
}

// Recorder persists valuation summaries for later analysis.
type Recorder interface {
	RecordSnapshot(rec *SnapshotRecord) error
	RecordBandChange(evt *BandChange) error
	// LastBand returns the band of the asset's most recent snapshot.
	LastBand(asset string) (model.Band, bool, error)
	Close() error
}
