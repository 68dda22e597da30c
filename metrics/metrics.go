// Package metrics exposes the Prometheus collectors for the HTTP surface
// and the label extraction pipeline. Everything registers with the default
// registry at package load, the server serves it on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP surface, labelled by chi route pattern to keep cardinality low.
	HTTPRequestTotals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_request_total",
		Help: "HTTP requests served, by method, route, and status.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_request_in_flight",
		Help: "Requests currently being served.",
	})

	// RateLimiterBucketsTotal tracks distinct client IPs holding a token
	// bucket, the half-hourly sweep shrinks it again.
	RateLimiterBucketsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rate_limiter_buckets_total",
		Help: "Token buckets held for recently seen client IPs.",
	})

	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "label_extractions_total",
		Help: "Label extraction attempts, by outcome (ok, parse_error, model_error).",
	}, []string{"outcome"})

	// Model calls take seconds, not milliseconds, hence the wide buckets
	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "label_extraction_duration_seconds",
		Help:    "Label extraction latency including the model call.",
		Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
	})

	LookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reference_lookups_total",
		Help: "Reference dataset lookups, by matching column (name, composition, none).",
	}, []string{"result"})
)
