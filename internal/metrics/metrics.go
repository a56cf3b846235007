// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	DeviationIndex = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cryptosentinel",
			Name:      "deviation_index",
			Help:      "Latest deviation index per asset (NaN when indeterminate)",
		},
		[]string{"asset"},
	)

	Price = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cryptosentinel",
			Name:      "price_usd",
			Help:      "Latest daily close per asset",
		},
		[]string{"asset"},
	)

	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cryptosentinel",
			Subsystem: "source",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of price-history fetches per source",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	FetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cryptosentinel",
			Subsystem: "source",
			Name:      "fetch_failures_total",
			Help:      "Failed fetch attempts per source",
		},
		[]string{"source"},
	)

	SourceUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cryptosentinel",
			Subsystem: "source",
			Name:      "used_total",
			Help:      "Which source ultimately served each asset",
		},
		[]string{"asset", "source"},
	)

	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cryptosentinel",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Valuation runs by outcome (ok, partial, failed)",
		},
		[]string{"asset", "outcome"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cryptosentinel",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "History cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// Register adds every collector to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(DeviationIndex, Price, FetchDuration, FetchFailures, SourceUsed, PipelineRuns, CacheLookups)
	})
}

// ObserveFetch records one fetch attempt.
func ObserveFetch(source string, took time.Duration, err error) {
	FetchDuration.WithLabelValues(source).Observe(took.Seconds())
	if err != nil {
		FetchFailures.WithLabelValues(source).Inc()
	}
}
