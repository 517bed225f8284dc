// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Detection metrics
	PoolsDetected prometheus.Counter
	PoolsStale    prometheus.Counter
	MarketsCached prometheus.Counter
	DecodeErrors  *prometheus.CounterVec

	// Filter metrics
	PipelineRuns     *prometheus.CounterVec
	FilterVerdicts   *prometheus.CounterVec
	PipelineDuration prometheus.Histogram

	// Trading metrics
	BuyAttempts   *prometheus.CounterVec
	SellAttempts  *prometheus.CounterVec
	LivePositions prometheus.Gauge
	ExitReasons   *prometheus.CounterVec
	TradeProfit   prometheus.Histogram

	// Transport metrics
	SubmissionLatency *prometheus.HistogramVec
	WSNotifications   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on reg. A nil reg uses
// the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	namespace := "sniper"

	return &Metrics{
		PoolsDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "pools_detected_total",
			Help:      "Total number of new pools observed",
		}),
		PoolsStale: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "pools_stale_total",
			Help:      "Total number of pools skipped as opened before process start",
		}),
		MarketsCached: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "markets_cached_total",
			Help:      "Total number of markets cached",
		}),
		DecodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "decode_errors_total",
			Help:      "Total number of account decode errors by layout",
		}, []string{"layout"}),

		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filters",
			Name:      "pipeline_runs_total",
			Help:      "Total number of filter pipeline evaluations by result",
		}, []string{"result"}),
		FilterVerdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filters",
			Name:      "verdicts_total",
			Help:      "Total number of filter verdicts by filter and result",
		}, []string{"filter", "result"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "filters",
			Name:      "pipeline_duration_seconds",
			Help:      "Filter pipeline evaluation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		BuyAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "buy_attempts_total",
			Help:      "Total number of buy submissions by result",
		}, []string{"result"}),
		SellAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "sell_attempts_total",
			Help:      "Total number of sell submissions by result",
		}, []string{"result"}),
		LivePositions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "live_positions",
			Help:      "Number of currently live positions",
		}),
		ExitReasons: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "exits_total",
			Help:      "Total number of position exits by reason",
		}, []string{"reason"}),
		TradeProfit: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trade_profit_pct",
			Help:      "Realized trade profit percentage",
			Buckets:   []float64{-100, -75, -50, -25, 0, 25, 50, 100, 200, 500},
		}),

		SubmissionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "submission_latency_seconds",
			Help:      "Transaction submission-to-outcome latency by executor",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"executor"}),
		WSNotifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "ws_notifications_total",
			Help:      "Total number of WebSocket notifications by subscription",
		}, []string{"subscription"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
