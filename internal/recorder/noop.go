package recorder

import "CryptoSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ *SnapshotRecord) error      { return nil }
func (n *NoopRecorder) RecordBandChange(_ *BandChange) error        { return nil }
func (n *NoopRecorder) LastBand(_ string) (model.Band, bool, error) { return "", false, nil }
func (n *NoopRecorder) Close() error                                { return nil }
