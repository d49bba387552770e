// Package metrics exposes Prometheus instruments for the HTTP surface,
// language-model calls and contact discovery.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quote"

// Metrics holds every instrument and the registry they live in. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	LLMCalls          *prometheus.CounterVec
	LLMDuration       *prometheus.HistogramVec
	LLMTokens         *prometheus.CounterVec
	LLMCost           *prometheus.CounterVec
	BreakerState      *prometheus.GaugeVec
	ProductsProcessed *prometheus.CounterVec
	EmailsFound       *prometheus.CounterVec
}

// New creates a Metrics bound to its own registry, with Go runtime and
// process collectors attached.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"route"}),
		LLMCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Language-model calls by provider, operation and outcome.",
		}, []string{"provider", "operation", "outcome"}), // outcome: ok, error, rejected
		LLMDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Language-model call latency, retries included.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"provider", "operation"}),
		LLMTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens consumed by direction.",
		}, []string{"provider", "direction"}), // direction: input, output
		LLMCost: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "cost_usd_total",
			Help:      "Estimated model spend in USD.",
		}, []string{"provider", "model"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		}, []string{"provider"}),
		ProductsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "products_total",
			Help:      "Products processed by contact discovery, by outcome.",
		}, []string{"outcome"}),
		EmailsFound: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "emails_total",
			Help:      "Emails returned by discovery, by source.",
		}, []string{"source"}), // source: model, registered
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveLLM records one model call.
func (m *Metrics) ObserveLLM(provider, operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.LLMCalls.WithLabelValues(provider, operation, outcome).Inc()
	m.LLMDuration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}

// AddTokens records token usage reported by a provider.
func (m *Metrics) AddTokens(provider string, input, output int64) {
	if m == nil {
		return
	}
	m.LLMTokens.WithLabelValues(provider, "input").Add(float64(input))
	m.LLMTokens.WithLabelValues(provider, "output").Add(float64(output))
}

// AddCost records estimated spend for one call.
func (m *Metrics) AddCost(provider, model string, usd float64) {
	if m == nil || usd <= 0 {
		return
	}
	m.LLMCost.WithLabelValues(provider, model).Add(usd)
}

// SetBreakerState publishes a breaker state as its numeric value.
func (m *Metrics) SetBreakerState(provider string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(provider).Set(float64(state))
}

// ObserveProduct records a processed product and the emails it yielded.
func (m *Metrics) ObserveProduct(ok bool, modelEmails, registeredEmails int) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.ProductsProcessed.WithLabelValues(outcome).Inc()
	m.EmailsFound.WithLabelValues("model").Add(float64(modelEmails))
	m.EmailsFound.WithLabelValues("registered").Add(float64(registeredEmails))
}
