// Package cache memoizes fetched price histories. It belongs to the data-fetch
// layer; the valuation pipeline never sees it.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores raw bytes with a time-to-live. A miss is (nil, false, nil).
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// HistoryKey builds the memoization key of an asset's history as of a UTC day,
// so a new calendar day never reuses yesterday's entry.
func HistoryKey(assetID string, asOf time.Time) string {
	return fmt.Sprintf("history:%s:%s", assetID, asOf.UTC().Format("2006-01-02"))
}
