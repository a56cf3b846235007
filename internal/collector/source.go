package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"CryptoSentinel/internal/model"
)

var (
	// ErrUnsupportedAsset means a source has no identifier for the asset.
	ErrUnsupportedAsset = errors.New("asset not supported by source")
	// ErrEmptyHistory means a source answered but delivered no usable point.
	ErrEmptyHistory = errors.New("empty price history")
)

// Source fetches the full daily close history of an asset.
type Source interface {
	Name() string
	FetchHistory(ctx context.Context, profile model.AssetProfile) (model.PriceSeries, error)
}

// newHTTPClient builds a client that routes through proxyURL when set.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
