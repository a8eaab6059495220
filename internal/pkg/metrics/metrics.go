package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PriceCacheHits counts price lookups served from the fresh cache.
	PriceCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "price_cache_hits_total",
		Help: "Number of token price lookups served from the fresh cache.",
	})

	// PriceCacheMisses counts price lookups that had to go upstream.
	PriceCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "price_cache_misses_total",
		Help: "Number of token price lookups not served from the cache.",
	})

	// UpstreamRequests counts calls issued to a price provider.
	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_upstream_requests_total",
		Help: "Number of requests issued to upstream price providers.",
	}, []string{"provider"})

	// UpstreamFailures counts transport/HTTP failures per provider.
	UpstreamFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_upstream_failures_total",
		Help: "Number of failed requests to upstream price providers.",
	}, []string{"provider"})

	// EstimateFallbacks counts resolutions that exhausted every source and
	// emitted a zero-price estimate.
	EstimateFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "price_estimate_fallbacks_total",
		Help: "Number of price resolutions that fell back to a zero-price estimate.",
	})

	// PortfolioRefreshes counts full portfolio re-fetch cycles.
	PortfolioRefreshes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_refreshes_total",
		Help: "Number of full portfolio aggregation cycles.",
	})
)

// MustRegisterMetrics registers every collector with the default registry.
// Call it once from main.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		PriceCacheHits,
		PriceCacheMisses,
		UpstreamRequests,
		UpstreamFailures,
		EstimateFallbacks,
		PortfolioRefreshes,
	)
}
