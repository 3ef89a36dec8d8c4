package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and refresh Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videolib",
			Name:      "search_requests_total",
			Help:      "Total number of search requests by serving engine",
		},
		[]string{"engine"}, // "elasticsearch" / "fuzzy"
	)

	SearchFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "videolib",
			Name:      "search_fallbacks_total",
			Help:      "Searches that fell back to the local fuzzy engine",
		},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videolib",
			Name:      "search_cache_total",
			Help:      "Search result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videolib",
			Name:      "catalog_refresh_total",
			Help:      "Catalog refresh attempts by outcome",
		},
		[]string{"status"}, // "success" / "partial" / "error"
	)

	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "videolib",
			Name:      "catalog_refresh_duration_seconds",
			Help:      "Catalog refresh duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	CatalogVideos = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "videolib",
			Name:      "catalog_videos",
			Help:      "Number of videos in the current snapshot",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchFallbacksTotal)
	prometheus.MustRegister(SearchCacheTotal)
	prometheus.MustRegister(RefreshTotal)
	prometheus.MustRegister(RefreshDuration)
	prometheus.MustRegister(CatalogVideos)
	searchMetricsRegistered = true
}
