package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"CryptoSentinel/internal/cache"
	"CryptoSentinel/internal/collector"
	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/recorder"
)

// app holds the long-lived components shared by the commands.
type app struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	cache     cache.Cache
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	sources, err := buildSources(cfg)
	if err != nil {
		return nil, err
	}
	chain := collector.NewChain(cfg.Sources.Timeout, sources...)
	log.Info().Strs("sources", chain.Sources()).Msg("data sources")

	c := buildCache(ctx, cfg)
	return &app{
		Collector: collector.NewCollector(chain, c, cfg.Cache.TTL, cfg.Profiles()),
		Recorder:  buildRecorder(cfg),
		cache:     c,
	}, nil
}

func (a *app) Close() {
	if err := a.Recorder.Close(); err != nil {
		log.Warn().Err(err).Msg("close recorder")
	}
	if err := a.cache.Close(); err != nil {
		log.Warn().Err(err).Msg("close cache")
	}
}

func buildSources(cfg *config.Config) ([]collector.Source, error) {
	var out []collector.Source
	for _, name := range cfg.Sources.Order {
		switch name {
		case "yahoo":
			out = append(out, collector.NewYahooSource(cfg.Sources.Yahoo.BaseURL, cfg.Proxy))
		case "coingecko":
			cg := cfg.Sources.CoinGecko
			out = append(out, collector.NewCoinGeckoSource(cg.BaseURL, cg.APIKey, cfg.Proxy, cg.RatePerMinute))
		case "mock":
			out = append(out, &collector.MockSource{Days: 1500})
		default:
			return nil, fmt.Errorf("unknown source %q", name)
		}
	}
	return out, nil
}

// buildCache returns memory only, or memory in front of Redis when Redis answers.
func buildCache(ctx context.Context, cfg *config.Config) cache.Cache {
	mem := cache.NewMemoryCache(cfg.Cache.MemorySize)
	if cfg.Cache.RedisAddr == "" {
		return mem
	}
	rc := cache.NewRedisCache(cache.RedisConfig{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB, Prefix: cfg.Cache.Prefix})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn().Str("addr", cfg.Cache.RedisAddr).Err(err).Msg("redis unavailable, using memory cache")
		_ = rc.Close()
		return mem
	}
	log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("redis cache enabled")
	return cache.NewLayeredCache(mem, rc, cfg.Cache.TTL)
}

func buildRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
