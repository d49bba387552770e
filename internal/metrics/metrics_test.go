package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("/health", "GET", 200, time.Millisecond)
		m.ObserveLLM("openai", "draft", "ok", time.Second)
		m.AddTokens("openai", 10, 20)
		m.AddCost("openai", "gpt-4", 0.5)
		m.SetBreakerState("openai", 1)
		m.ObserveProduct(true, 2, 1)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveLLM("openai", "discover", "ok", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.LLMCalls.WithLabelValues("openai", "discover", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LLMCalls.WithLabelValues("openai", "discover", "ok")))
}

func TestObserveProduct(t *testing.T) {
	m := New()
	m.ObserveProduct(true, 3, 2)
	m.ObserveProduct(false, 0, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductsProcessed.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductsProcessed.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EmailsFound.WithLabelValues("model")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.EmailsFound.WithLabelValues("registered")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP("/api/suppliers", http.MethodGet, http.StatusOK, 5*time.Millisecond)
	m.AddTokens("anthropic", 100, 40)
	m.SetBreakerState("anthropic", 1)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `quote_http_requests_total{code="200",method="GET",route="/api/suppliers"} 1`)
	assert.Contains(t, text, `quote_llm_tokens_total{direction="input",provider="anthropic"} 100`)
	assert.Contains(t, text, `quote_llm_breaker_state{provider="anthropic"} 1`)
	assert.Contains(t, text, "go_goroutines")
}

func TestAddCost(t *testing.T) {
	m := New()
	m.AddCost("openai", "gpt-4", 0.25)
	m.AddCost("openai", "gpt-4", 0.5)
	m.AddCost("openai", "gpt-4", 0)

	assert.InDelta(t, 0.75, testutil.ToFloat64(m.LLMCost.WithLabelValues("openai", "gpt-4")), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(m.LLMCost))
}
