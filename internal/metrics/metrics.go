package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PopulateRuns counts populate runs by result (success, partial, source_unavailable).
	PopulateRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "device_locations",
		Name:      "populate_runs_total",
		Help:      "Cache populate runs by result.",
	}, []string{"result"})

	// PopulateDevices counts per-device cache writes by outcome.
	PopulateDevices = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "device_locations",
		Name:      "populate_devices_total",
		Help:      "Per-device cache writes during populate runs by outcome.",
	}, []string{"outcome"})

	// PopulateSkippedSamples counts samples left out of reduction.
	PopulateSkippedSamples = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "device_locations",
		Name:      "populate_skipped_samples_total",
		Help:      "Samples excluded from reduction because of a missing or invalid timestamp.",
	})

	// PopulateDuration observes the wall time of populate runs.
	PopulateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "device_locations",
		Name:      "populate_duration_seconds",
		Help:      "Duration of cache populate runs.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
	})

	// CacheLookups counts position cache reads by query operation and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "device_locations",
		Name:      "cache_lookups_total",
		Help:      "Position cache reads by operation and result.",
	}, []string{"operation", "result"})

	// DatasetFallbacks counts query-time reads of the full dataset.
	DatasetFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "device_locations",
		Name:      "dataset_reads_total",
		Help:      "Full dataset reads performed while answering queries.",
	}, []string{"operation"})

	// RequestDuration observes HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "device_locations",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status code.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"method", "route", "status"})
)
