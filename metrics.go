package authcore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the engine's Prometheus instrumentation. All methods are
// nil-safe so instrumentation stays optional.
type Metrics struct {
	authOutcomes     *prometheus.CounterVec
	tokensIssued     prometheus.Counter
	refreshRotations prometheus.Counter
	refreshReuse     prometheus.Counter
	rateLimitBlocks  *prometheus.CounterVec
	verifyLatency    prometheus.Histogram
}

// NewMetrics builds and registers the metric set on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_gate_outcomes_total",
			Help: "Gate decisions by outcome code (admitted or rejection code).",
		}, []string{"outcome"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authcore_token_pairs_issued_total",
			Help: "Credential pairs issued.",
		}),
		refreshRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authcore_refresh_rotations_total",
			Help: "Successful single-use refresh rotations.",
		}),
		refreshReuse: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authcore_refresh_reuse_detected_total",
			Help: "Rotation attempts with an already-revoked refresh token.",
		}),
		rateLimitBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_rate_limit_blocks_total",
			Help: "Consumptions rejected by tier.",
		}, []string{"tier"}),
		verifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "authcore_verify_duration_seconds",
			Help:    "Token verification latency.",
			Buckets: prometheus.ExponentialBuckets(10e-6, 4, 8),
		}),
	}
	reg.MustRegister(
		m.authOutcomes,
		m.tokensIssued,
		m.refreshRotations,
		m.refreshReuse,
		m.rateLimitBlocks,
		m.verifyLatency,
	)
	return m
}

// ObserveOutcome counts a gate decision; use "admitted" for success or the
// rejection code otherwise.
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.authOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveIssue() {
	if m == nil {
		return
	}
	m.tokensIssued.Inc()
}

func (m *Metrics) ObserveRotation() {
	if m == nil {
		return
	}
	m.refreshRotations.Inc()
}

func (m *Metrics) ObserveReuse() {
	if m == nil {
		return
	}
	m.refreshReuse.Inc()
}

// ObserveBlock counts a rate-limit block for tier. Blocks are an expected,
// policy-driven outcome, hence a counter rather than an error log.
func (m *Metrics) ObserveBlock(tier string) {
	if m == nil {
		return
	}
	m.rateLimitBlocks.WithLabelValues(tier).Inc()
}

func (m *Metrics) ObserveVerifyDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.verifyLatency.Observe(d.Seconds())
}
