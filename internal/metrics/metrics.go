// Package metrics exposes Prometheus collectors for access decisions and credit usage.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "notebase"

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gateDecisions    *prometheus.CounterVec
	chatOutcomes     *prometheus.CounterVec
	creditsConsumed  prometheus.Counter
	suspensions      prometheus.Counter
	upstreamDuration *prometheus.HistogramVec
}

// New constructs and registers the collectors. Tests should pass a fresh registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		gateDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "content_gate",
				Name:      "decisions_total",
				Help:      "Document access decisions by result code.",
			},
			[]string{"code"},
		),
		chatOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ai_chat",
				Name:      "submissions_total",
				Help:      "AI chat submissions by result code.",
			},
			[]string{"code"},
		),
		creditsConsumed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ai_chat",
				Name:      "credits_consumed_total",
				Help:      "Word credits charged for AI chat input.",
			},
		),
		suspensions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ai_chat",
				Name:      "suspensions_total",
				Help:      "Credit records suspended for repeated abuse.",
			},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Latency of storage and AI backend calls.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend", "status"},
		),
	}

	collectors := []prometheus.Collector{m.gateDecisions, m.chatOutcomes, m.creditsConsumed, m.suspensions, m.upstreamDuration}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) GateDecision(code string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(code).Inc()
}

func (m *Metrics) ChatOutcome(code string) {
	if m == nil {
		return
	}
	m.chatOutcomes.WithLabelValues(code).Inc()
}

func (m *Metrics) CreditsConsumed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.creditsConsumed.Add(float64(n))
}

func (m *Metrics) Suspension() {
	if m == nil {
		return
	}
	m.suspensions.Inc()
}

// Upstream records the duration of one call to an external backend.
func (m *Metrics) Upstream(backend string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.upstreamDuration.WithLabelValues(backend, status).Observe(time.Since(started).Seconds())
}
