// Package metrics exposes Prometheus instrumentation for the gateway: HTTP
// request counts/latencies and outbound ledger call counts/latencies.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ledgerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_ledger_calls_total",
			Help: "Total number of ledger RPC calls",
		},
		[]string{"method", "outcome"},
	)

	ledgerCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_ledger_call_duration_seconds",
			Help:    "Duration of ledger RPC calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"method"},
	)

	guardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_guard_decisions_total",
			Help: "Total number of access-flow guard decisions",
		},
		[]string{"decision"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		ledgerCallsTotal,
		ledgerCallDuration,
		guardDecisionsTotal,
	)
}

// Middleware instruments every request with count and latency metrics.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			httpRequestsTotal.WithLabelValues(
				c.Request().Method, path, strconv.Itoa(c.Response().Status),
			).Inc()
			httpRequestDuration.WithLabelValues(c.Request().Method, path).
				Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// RecordLedgerCall records one outbound canister call.
func RecordLedgerCall(method, outcome string, duration time.Duration) {
	ledgerCallsTotal.WithLabelValues(method, outcome).Inc()
	ledgerCallDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordGuardDecision records one access-flow guard decision.
func RecordGuardDecision(decision string) {
	guardDecisionsTotal.WithLabelValues(decision).Inc()
}

// Handler returns the /metrics scrape endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
