// Package metrics provides Prometheus metrics for the assistant and formatter.
package metrics

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports assistant metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Chat metrics
	chatLatency    *prometheus.HistogramVec
	chatRequests   *prometheus.CounterVec
	sessionsActive prometheus.Gauge

	// Formatter metrics
	fragments   *prometheus.CounterVec
	strategies  *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// LLM token metrics
	llmTokensUsed *prometheus.CounterVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.chatLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "readle",
			Subsystem: "assistant",
			Name:      "chat_latency_seconds",
			Help:      "Chat round-trip latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"backend"},
	)

	e.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readle",
			Subsystem: "assistant",
			Name:      "chat_requests_total",
			Help:      "Total number of chat requests",
		},
		[]string{"backend", "status"},
	)

	e.sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "readle",
			Subsystem: "assistant",
			Name:      "sessions_active",
			Help:      "Number of open chat sessions",
		},
	)

	e.fragments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readle",
			Subsystem: "format",
			Name:      "fragments_total",
			Help:      "Fragments produced by the reply formatter, by kind",
		},
		[]string{"kind"},
	)

	e.strategies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readle",
			Subsystem: "format",
			Name:      "strategy_total",
			Help:      "Formatted replies by the strategy that classified them",
		},
		[]string{"strategy"},
	)

	e.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "readle",
			Subsystem: "format",
			Name:      "cache_hits_total",
			Help:      "Formatter cache hits",
		},
	)

	e.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "readle",
			Subsystem: "format",
			Name:      "cache_misses_total",
			Help:      "Formatter cache misses",
		},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readle",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens used by direct LLM calls",
		},
		[]string{"model", "type"},
	)

	registry.MustRegister(
		e.chatLatency,
		e.chatRequests,
		e.sessionsActive,
		e.fragments,
		e.strategies,
		e.cacheHits,
		e.cacheMisses,
		e.llmTokensUsed,
	)

	return e
}

// RecordChatRequest records one chat round trip.
func (e *PrometheusExporter) RecordChatRequest(backend string, latency time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}

	e.chatRequests.WithLabelValues(backend, status).Inc()
	e.chatLatency.WithLabelValues(backend).Observe(latency.Seconds())
}

// SetActiveSessions sets the number of open chat sessions.
func (e *PrometheusExporter) SetActiveSessions(count int) {
	e.sessionsActive.Set(float64(count))
}

// RecordFormat records the strategy and fragment kinds of one formatted reply.
func (e *PrometheusExporter) RecordFormat(strategy string, kinds []string) {
	if strategy != "" {
		e.strategies.WithLabelValues(strategy).Inc()
	}
	for _, k := range kinds {
		e.fragments.WithLabelValues(k).Inc()
	}
}

// RecordFormatCache records a formatter cache lookup.
func (e *PrometheusExporter) RecordFormatCache(hit bool) {
	if hit {
		e.cacheHits.Inc()
		return
	}
	e.cacheMisses.Inc()
}

// RecordLLMTokens records LLM token usage.
func (e *PrometheusExporter) RecordLLMTokens(model, tokenType string, count int) {
	e.llmTokensUsed.WithLabelValues(model, tokenType).Add(float64(count))
}

// Handler returns an HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}

// Registry returns the Prometheus registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

// ExportText renders counters, gauges and histogram sums/counts in the
// Prometheus text format.
func (e *PrometheusExporter) ExportText() (string, error) {
	var sb strings.Builder

	families, err := e.registry.Gather()
	if err != nil {
		return "", err
	}

	for _, mf := range families {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		sb.WriteString("# HELP " + mf.GetName() + " " + mf.GetHelp() + "\n")
		sb.WriteString("# TYPE " + mf.GetName() + " " + strings.ToLower(mf.GetType().String()) + "\n")

		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"=\""+lp.GetValue()+"\"")
			}
			sort.Strings(labels)
			suffix := ""
			if len(labels) > 0 {
				suffix = "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				sb.WriteString(mf.GetName() + suffix + " " + formatFloat(m.GetCounter().GetValue()) + "\n")
			case m.GetGauge() != nil:
				sb.WriteString(mf.GetName() + suffix + " " + formatFloat(m.GetGauge().GetValue()) + "\n")
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				sb.WriteString(mf.GetName() + "_sum" + suffix + " " + formatFloat(h.GetSampleSum()) + "\n")
				sb.WriteString(mf.GetName() + "_count" + suffix + " " + strconv.FormatUint(h.GetSampleCount(), 10) + "\n")
			}
		}
	}

	return sb.String(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
