package collector

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"CryptoSentinel/internal/cache"
	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/strategy"
	"CryptoSentinel/internal/valuation"
)

// Fetcher is the history-fetching side of a Chain.
type Fetcher interface {
	Fetch(ctx context.Context, profile model.AssetProfile) (model.PriceSeries, FetchReport, error)
}

// Collector fetches every configured asset, runs the valuation pipeline and
// classifies the result.
type Collector struct {
	fetcher  Fetcher
	cache    cache.Cache
	ttl      time.Duration
	profiles []model.AssetProfile
	now      func() time.Time
}

// NewCollector creates a Collector. A nil cache disables memoization.
func NewCollector(fetcher Fetcher, c cache.Cache, ttl time.Duration, profiles []model.AssetProfile) *Collector {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Collector{fetcher: fetcher, cache: c, ttl: ttl, profiles: profiles, now: time.Now}
}

// Profiles returns the configured assets in order.
func (c *Collector) Profiles() []model.AssetProfile { return c.profiles }

// Lookup finds an asset by ID or short name, case-insensitively.
func (c *Collector) Lookup(key string) (model.AssetProfile, bool) {
	for _, p := range c.profiles {
		if strings.EqualFold(p.ID, key) || strings.EqualFold(p.Short, key) {
			return p, true
		}
	}
	return model.AssetProfile{}, false
}

// CollectAll evaluates every asset concurrently. The result has one snapshot
// per asset in configuration order; a failed asset carries its error.
func (c *Collector) CollectAll(ctx context.Context) []*model.Snapshot {
	out := make([]*model.Snapshot, len(c.profiles))
	var g errgroup.Group
	for i, p := range c.profiles {
		i, p := i, p
		g.Go(func() error {
			out[i] = c.Collect(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Collect evaluates one asset.
func (c *Collector) Collect(ctx context.Context, profile model.AssetProfile) *model.Snapshot {
	snap := &model.Snapshot{Profile: profile, TakenAt: c.now().UTC()}
	fail := func(err error, outcome string) *model.Snapshot {
		snap.Err = err
		snap.Classification = strategy.Unavailable(profile.Policy)
		metrics.PipelineRuns.WithLabelValues(profile.ID, outcome).Inc()
		return snap
	}

	series, err := c.History(ctx, profile)
	if err != nil {
		log.Error().Str("asset", profile.ID).Err(err).Msg("no price history")
		return fail(err, "unavailable")
	}
	snap.Source = series.Source

	v, err := valuation.Run(series, profile)
	if err != nil {
		log.Error().Str("asset", profile.ID).Str("source", series.Source).Err(err).Msg("valuation failed")
		return fail(err, "failed")
	}
	for _, w := range v.Warnings {
		log.Warn().Str("asset", profile.ID).Err(w).Msg("partial valuation")
	}

	cls, err := strategy.Evaluate(profile, v)
	if err != nil {
		return fail(err, "failed")
	}
	snap.Valuation = v
	snap.Classification = cls

	outcome := "ok"
	if v.Partial() {
		outcome = "partial"
	}
	metrics.PipelineRuns.WithLabelValues(profile.ID, outcome).Inc()
	metrics.Price.WithLabelValues(profile.ID).Set(v.CurrentPrice)
	dev := math.NaN()
	if v.CurrentDeviation != nil {
		dev = *v.CurrentDeviation
	}
	metrics.DeviationIndex.WithLabelValues(profile.ID).Set(dev)
	return snap
}

// History returns the asset's raw history, memoized per UTC day. Cache
// errors are logged and treated as misses.
func (c *Collector) History(ctx context.Context, profile model.AssetProfile) (model.PriceSeries, error) {
	key := cache.HistoryKey(profile.ID, c.now())
	if c.cache != nil {
		if series, ok := c.cached(ctx, key); ok {
			return series, nil
		}
	}

	series, report, err := c.fetcher.Fetch(ctx, profile)
	if err != nil {
		return model.PriceSeries{}, err
	}
	metrics.SourceUsed.WithLabelValues(profile.ID, report.Source).Inc()
	log.Info().Str("asset", profile.ID).Str("source", report.Source).Int("points", series.Len()).
		Int("attempts", len(report.Attempts)).Msg("history fetched")

	if c.cache != nil {
		if b, err := json.Marshal(series); err == nil {
			if err := c.cache.SetBytes(ctx, key, b, c.ttl); err != nil {
				log.Warn().Str("asset", profile.ID).Err(err).Msg("cache store failed")
			}
		}
	}
	return series, nil
}

func (c *Collector) cached(ctx context.Context, key string) (model.PriceSeries, bool) {
	b, ok, err := c.cache.GetBytes(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		log.Warn().Str("key", key).Err(err).Msg("cache lookup failed")
		return model.PriceSeries{}, false
	case !ok:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return model.PriceSeries{}, false
	}
	var series model.PriceSeries
	if err := json.Unmarshal(b, &series); err != nil || series.Empty() {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return model.PriceSeries{}, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return series, true
}
