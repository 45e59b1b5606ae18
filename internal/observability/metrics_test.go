package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveRewrite("accepted", 1)
	m.ObserveLLMCall("gemini", "ok", time.Second)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "bullet_rewrites_total")
	assert.Contains(t, names, "llm_requests_total")

	assert.Panics(t, func() { NewMetrics(reg) }, "duplicate registration")
}

func TestMetrics_ObserveRewrite(t *testing.T) {
	m := NewMetrics(nil)

	m.ObserveRewrite("accepted", 1)
	m.ObserveRewrite("accepted", 2)
	m.ObserveRewrite("quality_failed", 1)
	m.ObserveRewrite("model_invalid_output", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RewritesTotal.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RewritesTotal.WithLabelValues("quality_failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RewriteAttempts))
}

func TestMetrics_ObserveLLMCall(t *testing.T) {
	m := NewMetrics(nil)

	m.ObserveLLMCall("openai", "ok", 200*time.Millisecond)
	m.ObserveLLMCall("openai", "timeout", 15*time.Second)
	m.ObserveLLMCall("openai", "timeout", 15*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("openai", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("openai", "timeout")))
}

func TestMetrics_HTTPMiddleware_UsesRoutePattern(t *testing.T) {
	m := NewMetrics(nil)

	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Get("/api/sessions/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(_ http.ResponseWriter, _ *http.Request) {})

	for _, path := range []string{"/api/sessions/a", "/api/sessions/b", "/health"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/sessions/{id}", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/health", "GET", "200")))
}
