package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors. It satisfies
// llm.CallObserver and rewriting.Observer.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	LLMRequestsTotal    *prometheus.CounterVec
	LLMRequestDuration  *prometheus.HistogramVec
	RewritesTotal       *prometheus.CounterVec
	RewriteAttempts     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30},
			},
			[]string{"route", "method"},
		),
		LLMRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM provider calls by outcome",
			},
			[]string{"provider", "outcome"},
		),
		LLMRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "LLM provider call duration in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15},
			},
			[]string{"provider"},
		),
		RewritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bullet_rewrites_total",
				Help: "Finished bullet rewrites by outcome",
			},
			[]string{"outcome"},
		),
		RewriteAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bullet_rewrite_attempts",
				Help:    "Model calls made per bullet rewrite",
				Buckets: []float64{1, 2},
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.LLMRequestsTotal,
			m.LLMRequestDuration,
			m.RewritesTotal,
			m.RewriteAttempts,
		)
	}
	return m
}

// ObserveLLMCall records one provider call
func (m *Metrics) ObserveLLMCall(provider, outcome string, elapsed time.Duration) {
	m.LLMRequestsTotal.WithLabelValues(provider, outcome).Inc()
	m.LLMRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveRewrite records a finished rewrite
func (m *Metrics) ObserveRewrite(outcome string, attempts int) {
	m.RewritesTotal.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		m.RewriteAttempts.Observe(float64(attempts))
	}
}

// HTTPMiddleware records Prometheus metrics for each request.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		m.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// routePattern prefers the chi route pattern so path parameters do not
// explode label cardinality
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
