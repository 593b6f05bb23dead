// Package metrics holds the Prometheus collectors of the service. Every
// method is safe on a nil *Metrics so callers can run without them.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	llmclient "codelens/internal/llm/client"
)

const namespace = "codelens"

type Metrics struct {
	registry *prometheus.Registry

	modelCalls   *prometheus.CounterVec
	modelLatency *prometheus.HistogramVec
	tokens       *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	analyses     *prometheus.CounterVec
	attempts     prometheus.Histogram
	scores       *prometheus.HistogramVec
	cache        *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "model_calls_total",
			Help: "Model calls by model and outcome.",
		}, []string{"model", "outcome"}),
		modelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "model_call_seconds",
			Help:    "Model call latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"model"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "model_tokens_total",
			Help: "Tokens reported by the model, split by direction.",
		}, []string{"model", "direction"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "requester_transitions_total",
			Help: "Requester state transitions by target state.",
		}, []string{"state"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "analyses_total",
			Help: "Finished analyses by kind and outcome (passed, failed, error).",
		}, []string{"kind", "outcome"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "analysis_attempts",
			Help:    "Model attempts needed per analysis.",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
		scores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "quality_score",
			Help:    "Overall quality score of validated reports.",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}, []string{"kind"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "analysis_cache_total",
			Help: "Result cache lookups by result (hit, miss).",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.modelCalls, m.modelLatency, m.tokens, m.transitions,
		m.analyses, m.attempts, m.scores, m.cache,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveModelCall implements llm.CallRecorder.
func (m *Metrics) ObserveModelCall(model string, elapsed time.Duration, resp llmclient.Response, err error) {
	if m == nil {
		return
	}
	if resp.Model != "" {
		model = resp.Model
	}
	m.modelCalls.WithLabelValues(model, callOutcome(err)).Inc()
	m.modelLatency.WithLabelValues(model).Observe(elapsed.Seconds())
	if resp.PromptTokens > 0 {
		m.tokens.WithLabelValues(model, "prompt").Add(float64(resp.PromptTokens))
	}
	if resp.OutputTokens > 0 {
		m.tokens.WithLabelValues(model, "output").Add(float64(resp.OutputTokens))
	}
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, llmclient.ErrEmptyResponse):
		return "empty"
	case llmclient.IsPermanent(err):
		return "permanent"
	default:
		return "error"
	}
}

func (m *Metrics) ObserveTransition(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}

// ObserveAnalysis records a completed analysis. Pass attempts <= 0 for
// results that never reached the model.
func (m *Metrics) ObserveAnalysis(kind, outcome string, attempts int, score float64) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(kind, outcome).Inc()
	if attempts > 0 {
		m.attempts.Observe(float64(attempts))
	}
	if outcome != OutcomeError {
		m.scores.WithLabelValues(kind).Observe(score)
	}
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

// Analysis outcomes.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)
