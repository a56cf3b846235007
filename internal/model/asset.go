package model

// ModelKind selects the fair-value model variant of an asset.
type ModelKind string

const (
	ModelFixed      ModelKind = "fixed"
	ModelRegression ModelKind = "regression"
)

// PolicyKind selects how deviation values are mapped to bands.
type PolicyKind string

const (
	PolicyFixed      PolicyKind = "fixed"
	PolicyPercentile PolicyKind = "percentile"
)

// PowerLaw holds log-log coefficients: log10(price) = Slope*log10(age) + Intercept.
type PowerLaw struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// PolicySpec configures band classification for one asset.
type PolicySpec struct {
	Kind           PolicyKind `json:"kind"`
	BuyPercentile  float64    `json:"buy_percentile,omitempty"`
	SellPercentile float64    `json:"sell_percentile,omitempty"`
}

// AssetProfile is the static per-asset configuration.
type AssetProfile struct {
	ID          string     `json:"id"`    // e.g. BTC-USD
	Name        string     `json:"name"`  // display name, e.g. BITCOIN
	Short       string     `json:"short"` // command alias, e.g. btc
	YahooSymbol string     `json:"yahoo_symbol,omitempty"`
	CoinGeckoID string     `json:"coingecko_id,omitempty"`
	Model       ModelKind  `json:"model"`
	PowerLaw    PowerLaw   `json:"power_law"` // only meaningful for ModelFixed
	Policy      PolicySpec `json:"policy"`
}

// DefaultProfiles returns the two long-running assets the tool models out of the box.
func DefaultProfiles() []AssetProfile {
	return []AssetProfile{
		{
			ID:          "BTC-USD",
			Name:        "BITCOIN",
			Short:       "btc",
			YahooSymbol: "BTC-USD",
			CoinGeckoID: "bitcoin",
			Model:       ModelFixed,
			PowerLaw:    PowerLaw{Slope: 5.84, Intercept: -17.01},
			Policy:      PolicySpec{Kind: PolicyFixed},
		},
		{
			ID:          "ETH-USD",
			Name:        "ETHEREUM",
			Short:       "eth",
			YahooSymbol: "ETH-USD",
			CoinGeckoID: "ethereum",
			Model:       ModelRegression,
			Policy:      PolicySpec{Kind: PolicyFixed},
		},
	}
}
