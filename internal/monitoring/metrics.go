package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a dedicated registry so tests can build isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	Signups        prometheus.Counter
	AdsWatched     prometheus.Counter
	Spins          prometheus.Counter
	TasksCompleted prometheus.Counter
	Transactions   *prometheus.CounterVec

	Users        prometheus.Gauge
	TotalPayouts prometheus.Gauge

	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adquest_signups_total",
			Help: "Accounts created",
		}),
		AdsWatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adquest_ads_watched_total",
			Help: "Ad views credited",
		}),
		Spins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adquest_spins_total",
			Help: "Spin credits consumed",
		}),
		TasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adquest_tasks_completed_total",
			Help: "Task rewards paid",
		}),
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adquest_transactions_total",
			Help: "Transaction workflow events",
		}, []string{"type", "event"}),

		Users: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adquest_users",
			Help: "Accounts in the snapshot",
		}),
		TotalPayouts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adquest_total_payouts",
			Help: "Sum of approved withdrawals",
		}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "adquest_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adquest_http_requests_total",
			Help: "HTTP requests served",
		}, []string{"method", "status"}),
	}

	m.registry.MustRegister(
		m.Signups, m.AdsWatched, m.Spins, m.TasksCompleted, m.Transactions,
		m.Users, m.TotalPayouts,
		m.requestDuration, m.requestCount,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency per method and status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		m.requestCount.WithLabelValues(r.Method, status).Inc()
		m.requestDuration.WithLabelValues(r.Method, status).Observe(time.Since(start).Seconds())
	})
}
