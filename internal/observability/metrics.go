// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "tokenwise"

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing, so the CLI can run without a registry.
type Metrics struct {
	// Symbol resolver metrics
	SymbolLookups *prometheus.CounterVec

	// Solana RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Refresh metrics
	RefreshRunsTotal      *prometheus.CounterVec
	RefreshDuration       prometheus.Histogram
	HoldersStored         prometheus.Gauge
	TransactionsIngested  prometheus.Counter
	LastSuccessfulRefresh prometheus.Gauge

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SymbolLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "symbols",
			Name:      "lookups_total",
			Help:      "Total number of symbol lookups by outcome",
		}, []string{"outcome"}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls",
		}, []string{"method"}),

		RefreshRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of refresh runs by status",
		}, []string{"status"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Refresh run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		HoldersStored: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "holders_stored",
			Help:      "Number of holders in the latest snapshot",
		}),
		TransactionsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "transactions_ingested_total",
			Help:      "Total number of wallet transactions stored",
		}),
		LastSuccessfulRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last successful refresh",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordSymbolLookup counts a resolver outcome (cache, symbol, INV, UNK, ERR, TOK).
func (m *Metrics) RecordSymbolLookup(outcome string) {
	if m == nil {
		return
	}
	m.SymbolLookups.WithLabelValues(outcome).Inc()
}

// RecordRPC records RPC call latency and failures.
func (m *Metrics) RecordRPC(method string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.RPCCallLatency.WithLabelValues(method).Observe(d.Seconds())
	if err != nil {
		m.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordRefresh records a finished refresh run.
func (m *Metrics) RecordRefresh(status string, d time.Duration, holders int) {
	if m == nil {
		return
	}
	m.RefreshRunsTotal.WithLabelValues(status).Inc()
	m.RefreshDuration.Observe(d.Seconds())
	if status == "success" {
		m.HoldersStored.Set(float64(holders))
		m.LastSuccessfulRefresh.SetToCurrentTime()
	}
}

// RecordTransactionsIngested adds n stored transactions.
func (m *Metrics) RecordTransactionsIngested(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TransactionsIngested.Add(float64(n))
}

// RecordHTTPRequest counts a served request.
func (m *Metrics) RecordHTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
}
