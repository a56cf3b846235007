package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"CryptoSentinel/internal/model"
)

// CoinGeckoSource reads daily prices from the CoinGecko market_chart endpoint.
type CoinGeckoSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	limiter *rate.Limiter
}

// NewCoinGeckoSource creates a CoinGecko source allowing perMinute requests
// per minute (burst 1).
func NewCoinGeckoSource(baseURL, apiKey, proxyURL string, perMinute int) *CoinGeckoSource {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	if perMinute <= 0 {
		perMinute = 10
	}
	return &CoinGeckoSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (s *CoinGeckoSource) Name() string { return "coingecko" }

func (s *CoinGeckoSource) FetchHistory(ctx context.Context, profile model.AssetProfile) (model.PriceSeries, error) {
	if profile.CoinGeckoID == "" {
		return model.PriceSeries{}, fmt.Errorf("coingecko: %w", ErrUnsupportedAsset)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return model.PriceSeries{}, fmt.Errorf("coingecko rate limit: %w", err)
	}

	u := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=max&interval=daily",
		s.BaseURL, url.PathEscape(profile.CoinGeckoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.PriceSeries{}, err
	}
	req.Header.Set("Accept", "application/json")
	if s.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", s.APIKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("coingecko fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("coingecko read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PriceSeries{}, fmt.Errorf("coingecko: status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}
	if !gjson.ValidBytes(body) {
		return model.PriceSeries{}, fmt.Errorf("coingecko decode: invalid json")
	}

	prices := gjson.GetBytes(body, "prices")
	if !prices.IsArray() {
		return model.PriceSeries{}, fmt.Errorf("coingecko %s: %w", profile.CoinGeckoID, ErrEmptyHistory)
	}

	points := make([]model.PricePoint, 0, len(prices.Array()))
	prices.ForEach(func(_, pair gjson.Result) bool {
		ms, price := pair.Get("0"), pair.Get("1")
		if ms.Type != gjson.Number || price.Type != gjson.Number {
			return true
		}
		points = append(points, model.PricePoint{
			Time:  time.UnixMilli(ms.Int()).UTC(),
			Close: price.Float(),
		})
		return true
	})

	return model.PriceSeries{
		Asset:     profile.ID,
		Source:    s.Name(),
		Points:    points,
		FetchedAt: time.Now().UTC(),
	}, nil
}
