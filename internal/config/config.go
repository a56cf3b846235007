package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"CryptoSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Assets   []AssetConfig `yaml:"assets" validate:"dive"`
	Sources  SourcesConfig `yaml:"sources"`
	Cache    CacheConfig   `yaml:"cache"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" default:"0 5 0 * * *" validate:"required"`
		ReportCron  string `yaml:"report_cron" default:"0 0 8 * * *" validate:"required"`
		RunOnStart  bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/crypto_sentinel.db"`
	} `yaml:"database"`
	HTTP struct {
		Host string `yaml:"host" default:"0.0.0.0"`
		Port int    `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// AssetConfig is the YAML form of a model.AssetProfile.
type AssetConfig struct {
	ID          string  `yaml:"id" validate:"required"`
	Name        string  `yaml:"name" validate:"required"`
	Short       string  `yaml:"short" validate:"required,lowercase"`
	YahooSymbol string  `yaml:"yahoo_symbol"`
	CoinGeckoID string  `yaml:"coingecko_id"`
	Model       string  `yaml:"model" default:"fixed" validate:"oneof=fixed regression"`
	Slope       float64 `yaml:"slope"`
	Intercept   float64 `yaml:"intercept"`
	Policy      struct {
		Kind           string  `yaml:"kind" default:"fixed" validate:"oneof=fixed percentile"`
		// nil means unset; 0 is a valid buy line at the historical minimum
		BuyPercentile  *float64 `yaml:"buy_percentile" validate:"omitempty,gte=0,lte=100"`
		SellPercentile *float64 `yaml:"sell_percentile" validate:"omitempty,gte=0,lte=100"`
	} `yaml:"policy"`
}

// SourcesConfig lists data sources in fallback order.
type SourcesConfig struct {
	Order   []string      `yaml:"order" validate:"min=1,dive,oneof=yahoo coingecko mock"`
	Timeout time.Duration `yaml:"timeout" default:"8s" validate:"gt=0"`
	Yahoo   struct {
		BaseURL string `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"url"`
	} `yaml:"yahoo"`
	CoinGecko struct {
		BaseURL       string `yaml:"base_url" default:"https://api.coingecko.com/api/v3" validate:"url"`
		APIKey        string `yaml:"api_key"`
		RatePerMinute int    `yaml:"rate_per_minute" default:"10" validate:"gt=0"`
	} `yaml:"coingecko"`
}

// CacheConfig configures history memoization. An empty RedisAddr keeps it in memory.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl" default:"1h" validate:"gt=0"`
	MemorySize int           `yaml:"memory_size" default:"64" validate:"gt=0"`
	RedisAddr  string        `yaml:"redis_addr"`
	RedisDB    int           `yaml:"redis_db"`
	Prefix     string        `yaml:"prefix" default:"cryptosentinel:"`
}

const (
	defaultBuyPercentile  = 5.0
	defaultSellPercentile = 95.0
)

var validate = validator.New()

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file yields the built-in defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.setDefaults(); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.Sources.CoinGecko.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("HTTP_HOST"); v != "" {
		cfg.HTTP.Host = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		cfg.Schedule.RunOnStart, _ = strconv.ParseBool(v)
	}
}

func (c *Config) setDefaults() error {
	if err := defaults.Set(c); err != nil {
		return err
	}
	if len(c.Sources.Order) == 0 {
		c.Sources.Order = []string{"yahoo", "coingecko"}
	}
	if len(c.Assets) == 0 {
		for _, p := range model.DefaultProfiles() {
			c.Assets = append(c.Assets, fromProfile(p))
		}
	}
	for i := range c.Assets {
		if err := defaults.Set(&c.Assets[i]); err != nil {
			return err
		}
		a := &c.Assets[i]
		if a.Policy.BuyPercentile == nil {
			v := defaultBuyPercentile
			a.Policy.BuyPercentile = &v
		}
		if a.Policy.SellPercentile == nil {
			v := defaultSellPercentile
			a.Policy.SellPercentile = &v
		}
		// a fixed model with no coefficients inherits the built-in ones for the asset
		if a.Model == string(model.ModelFixed) && a.Slope == 0 && a.Intercept == 0 {
			for _, p := range model.DefaultProfiles() {
				if p.ID == a.ID && p.Model == model.ModelFixed {
					a.Slope, a.Intercept = p.PowerLaw.Slope, p.PowerLaw.Intercept
				}
			}
		}
	}
	return nil
}

// Validate checks field constraints and cross-field consistency.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[string]bool)
	for _, a := range c.Assets {
		if seen[a.ID] || seen["short:"+a.Short] {
			return fmt.Errorf("duplicate asset %q", a.ID)
		}
		seen[a.ID], seen["short:"+a.Short] = true, true
		if a.Model == string(model.ModelFixed) && a.Slope == 0 {
			return fmt.Errorf("asset %s: fixed model needs a non-zero slope", a.ID)
		}
		if buy, sell := a.Policy.BuyPercentile, a.Policy.SellPercentile; buy != nil && sell != nil && *buy >= *sell {
			return fmt.Errorf("asset %s: buy_percentile %v must be below sell_percentile %v", a.ID, *buy, *sell)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Profiles converts the configured assets to model profiles, in config order.
func (c *Config) Profiles() []model.AssetProfile {
	out := make([]model.AssetProfile, 0, len(c.Assets))
	for _, a := range c.Assets {
		out = append(out, a.Profile())
	}
	return out
}

// Profile converts one asset entry.
func (a AssetConfig) Profile() model.AssetProfile {
	return model.AssetProfile{
		ID:          a.ID,
		Name:        a.Name,
		Short:       a.Short,
		YahooSymbol: a.YahooSymbol,
		CoinGeckoID: a.CoinGeckoID,
		Model:       model.ModelKind(a.Model),
		PowerLaw:    model.PowerLaw{Slope: a.Slope, Intercept: a.Intercept},
		Policy: model.PolicySpec{
			Kind:           model.PolicyKind(a.Policy.Kind),
			BuyPercentile:  valueOr(a.Policy.BuyPercentile, defaultBuyPercentile),
			SellPercentile: valueOr(a.Policy.SellPercentile, defaultSellPercentile),
		},
	}
}

func fromProfile(p model.AssetProfile) AssetConfig {
	a := AssetConfig{
		ID:          p.ID,
		Name:        p.Name,
		Short:       p.Short,
		YahooSymbol: p.YahooSymbol,
		CoinGeckoID: p.CoinGeckoID,
		Model:       string(p.Model),
		Slope:       p.PowerLaw.Slope,
		Intercept:   p.PowerLaw.Intercept,
	}
	a.Policy.Kind = string(p.Policy.Kind)
	return a
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
