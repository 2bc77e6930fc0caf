package parse

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the parse subsystem.
type Metrics struct {
	ParsesTotal             *prometheus.CounterVec
	ParseDuration           *prometheus.HistogramVec
	LLMCallsTotal           prometheus.Counter
	LLMTokensIn             prometheus.Counter
	LLMTokensOut            prometheus.Counter
	LLMDuration             prometheus.Histogram
	FieldFallbacksTotal     *prometheus.CounterVec
	ValidationFailuresTotal *prometheus.CounterVec
	NotifiesTotal           *prometheus.CounterVec
}

// NewMetrics registers and returns parse metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ParsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_parses_total",
			Help: "Total parse requests by outcome.",
		}, []string{"outcome"}),
		ParseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scribe_parse_duration_seconds",
			Help:    "Duration of parse requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s .. ~128s
		}, []string{"outcome"}),
		LLMCallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scribe_llm_calls_total",
			Help: "Total LLM provider calls.",
		}),
		LLMTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scribe_llm_tokens_input_total",
			Help: "Total LLM input tokens consumed.",
		}),
		LLMTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scribe_llm_tokens_output_total",
			Help: "Total LLM output tokens consumed.",
		}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scribe_llm_call_duration_seconds",
			Help:    "Duration of individual LLM calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s .. ~32s
		}),
		FieldFallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_field_fallbacks_total",
			Help: "Total fallback values applied during validation, by field.",
		}, []string{"field"}),
		ValidationFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_validation_failures_total",
			Help: "Total parse failures by kind and field.",
		}, []string{"kind", "field"}),
		NotifiesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scribe_notifies_total",
			Help: "Total notification dispatches by status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.ParsesTotal,
		m.ParseDuration,
		m.LLMCallsTotal,
		m.LLMTokensIn,
		m.LLMTokensOut,
		m.LLMDuration,
		m.FieldFallbacksTotal,
		m.ValidationFailuresTotal,
		m.NotifiesTotal,
	)

	return m
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnLLMCall: func(inputTokens, outputTokens int, duration float64) {
			m.LLMCallsTotal.Inc()
			m.LLMTokensIn.Add(float64(inputTokens))
			m.LLMTokensOut.Add(float64(outputTokens))
			m.LLMDuration.Observe(duration)
		},
		OnFallback: func(field string) {
			m.FieldFallbacksTotal.WithLabelValues(field).Inc()
		},
		OnFailure: func(kind Kind, field string) {
			m.ValidationFailuresTotal.WithLabelValues(string(kind), field).Inc()
		},
	}
}
