// Package metrics holds the Prometheus collectors shared by the valuation
// pipeline and the HTTP servers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cryptostock"

// Engine metrics
var (
	EngineCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Reconciliation cycles by result (ok, partial, error)",
		},
		[]string{"result"},
	)

	EngineCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of reconciliation cycles",
			Buckets:   prometheus.DefBuckets,
		},
	)

	QuoteResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "quote_resolutions_total",
			Help:      "Per-asset quote resolutions by source (batch, fallback, unavailable)",
		},
		[]string{"source"},
	)
)

// Scheduler metrics
var (
	SchedulerSkippedTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "skipped_ticks_total",
			Help:      "Refresh ticks skipped because a cycle was still in flight",
		},
	)

	SchedulerDiscardedCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "discarded_cycles_total",
			Help:      "Cycles whose result was dropped because the consumer was disposed",
		},
	)
)

// Market data metrics
var (
	MarketCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "cache_requests_total",
			Help:      "Quote cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	MarketUpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "upstream_requests_total",
			Help:      "Requests to the market data API by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
)

// HTTP metrics
var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
		},
		[]string{"method", "path"},
	)

	StreamConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "connections",
			Help:      "Open portfolio stream websocket connections",
		},
	)
)
