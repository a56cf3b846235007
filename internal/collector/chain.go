package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
)

// ErrUpstreamUnavailable is wrapped by every FetchError.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// DefaultTimeout bounds a single source attempt.
const DefaultTimeout = 8 * time.Second

// Attempt records one source call of a fallback chain.
type Attempt struct {
	Source string        `json:"source"`
	Err    error         `json:"-"`
	Took   time.Duration `json:"took"`
}

// FetchReport tells which source served an asset and what failed before it.
type FetchReport struct {
	Asset    string    `json:"asset"`
	Source   string    `json:"source,omitempty"`
	Attempts []Attempt `json:"attempts"`
}

// FetchError is returned when every source of a chain failed.
type FetchError struct {
	Asset    string
	Attempts []Attempt
}

func (e *FetchError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Source, a.Err))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("fetch %s: no source configured", e.Asset)
	}
	return fmt.Sprintf("fetch %s: all sources failed: %s", e.Asset, strings.Join(parts, "; "))
}

// Unwrap exposes ErrUpstreamUnavailable and each attempt's error.
func (e *FetchError) Unwrap() []error {
	errs := []error{ErrUpstreamUnavailable}
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// Chain tries its sources in order until one returns a non-empty history.
// Every source sits behind its own circuit breaker.
type Chain struct {
	sources  []Source
	breakers []*gobreaker.CircuitBreaker
	timeout  time.Duration
}

// NewChain creates a chain; timeout <= 0 means DefaultTimeout.
func NewChain(timeout time.Duration, sources ...Source) *Chain {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Chain{sources: sources, timeout: timeout}
	for _, s := range sources {
		c.breakers = append(c.breakers, newBreaker(s.Name()))
	}
	return c
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnsupportedAsset) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
}

// Sources returns the source names in fallback order.
func (c *Chain) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// Fetch returns the first non-empty history. The report is filled in either case.
func (c *Chain) Fetch(ctx context.Context, profile model.AssetProfile) (model.PriceSeries, FetchReport, error) {
	report := FetchReport{Asset: profile.ID}
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			report.Attempts = append(report.Attempts, Attempt{Source: src.Name(), Err: err})
			break
		}
		start := time.Now()
		series, err := c.attempt(ctx, i, profile)
		took := time.Since(start)
		metrics.ObserveFetch(src.Name(), took, err)
		report.Attempts = append(report.Attempts, Attempt{Source: src.Name(), Err: err, Took: took})
		if err != nil {
			log.Warn().Str("asset", profile.ID).Str("source", src.Name()).Err(err).Msg("source failed, trying next")
			continue
		}
		report.Source = src.Name()
		return series, report, nil
	}
	return model.PriceSeries{}, report, &FetchError{Asset: profile.ID, Attempts: report.Attempts}
}

func (c *Chain) attempt(ctx context.Context, i int, profile model.AssetProfile) (model.PriceSeries, error) {
	src := c.sources[i]
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.breakers[i].Execute(func() (interface{}, error) {
		s, err := src.FetchHistory(actx, profile)
		if err != nil {
			return nil, err
		}
		if s.Empty() {
			return nil, fmt.Errorf("%s %s: %w", src.Name(), profile.ID, ErrEmptyHistory)
		}
		return s, nil
	})
	if err != nil {
		return model.PriceSeries{}, err
	}
	return out.(model.PriceSeries), nil
}
