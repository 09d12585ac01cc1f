package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache metrics
var (
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbcache_cache_hits_total",
			Help: "Total number of fresh cache hits",
		},
		[]string{"tier"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbcache_cache_misses_total",
			Help: "Total number of cache misses (missing or stale entries)",
		},
		[]string{"tier"},
	)

	FailMarkerHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbcache_fail_marker_hits_total",
			Help: "Total number of generations short-circuited by a failure marker",
		},
	)
)

// Generation metrics
var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbcache_generations_total",
			Help: "Total number of generation attempts by outcome",
		},
		[]string{"tier", "generator", "status"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbcache_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tier", "generator"},
	)

	FailMarkersWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbcache_fail_markers_written_total",
			Help: "Total number of failure markers written",
		},
	)
)

// Registry metrics
var (
	RegistryScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbcache_registry_scans_total",
			Help: "Total number of thumbnailer descriptor directory scans",
		},
	)
)
