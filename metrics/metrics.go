// Package metrics provides Prometheus instrumentation for the battle engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DepositsTotal counts staking deposits, partitioned by team.
	DepositsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warchest_deposits_total",
		Help: "Total number of staking deposits",
	}, []string{"team"})

	// DepositVolume tracks cumulative deposited principal per team.
	DepositVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warchest_deposit_volume_total",
		Help: "Cumulative deposited principal",
	}, []string{"team"})

	// BattlesSettled counts settlements, partitioned by outcome.
	BattlesSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warchest_battles_settled_total",
		Help: "Total number of settled battles",
	}, []string{"winner"})

	// ClaimsTotal counts post-settlement reward claims.
	ClaimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warchest_claims_total",
		Help: "Total number of reward claims paid out",
	})

	// EarlyWithdrawalsTotal counts pre-settlement exits.
	EarlyWithdrawalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warchest_early_withdrawals_total",
		Help: "Total number of early withdrawals",
	})

	// YieldDistributed tracks the total yield frozen into reward pools.
	YieldDistributed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warchest_yield_distributed_total",
		Help: "Total yield placed into reward pools at settlement",
	})

	// ActiveBattles tracks the number of battles accepting deposits.
	ActiveBattles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "warchest_active_battles",
		Help: "Number of currently active battles",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warchest_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warchest_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
