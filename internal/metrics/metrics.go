// Package metrics holds the Prometheus instruments shared by the API
// service and the scan worker. promauto registers them with the default
// registry, which /metrics exposes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedirectsTotal counts public redirect lookups by outcome (hit/miss).
	RedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_redirects_total",
			Help: "Total public slug redirect requests by outcome",
		},
		[]string{"outcome"},
	)

	// ScansRecorded counts scan rows successfully persisted.
	ScansRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_scans_recorded_total",
			Help: "Total scan events persisted",
		},
	)

	// ScanRecordFailures counts scan events that could not be persisted.
	ScanRecordFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_scan_record_failures_total",
			Help: "Total scan events dropped or requeued on persistence errors",
		},
	)

	// GeoLookupFailures counts geolocation lookups that fell back to the
	// Unknown sentinel.
	GeoLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_geo_lookup_failures_total",
			Help: "Total geolocation lookups that failed",
		},
	)

	// SlugCacheHits / SlugCacheMisses track the Redis cache on the
	// redirect path.
	SlugCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_slug_cache_hits_total",
			Help: "Total slug lookups served from cache",
		},
	)
	SlugCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qr_slug_cache_misses_total",
			Help: "Total slug lookups that went to the database",
		},
	)
)
