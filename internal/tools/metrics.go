package tools

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dispatcher's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	calls           *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	resolveFailures *prometheus.CounterVec
}

// NewMetrics registers the dispatcher collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: tool, outcome (ok or an error code)
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discord_mcp",
			Name:      "tool_calls_total",
			Help:      "Tool calls by tool and outcome",
		}, []string{"tool", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "discord_mcp",
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call latency including entity resolution",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"tool"}),
		// Labels: kind (server, role, member, ...), reason (not_found, ambiguous, ambiguous_scope)
		resolveFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discord_mcp",
			Name:      "resolve_failures_total",
			Help:      "Identifiers that did not resolve to exactly one entity",
		}, []string{"kind", "reason"}),
	}
}

func (m *Metrics) observe(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(tool, outcome).Inc()
	m.duration.WithLabelValues(tool).Observe(d.Seconds())
}

func (m *Metrics) resolveFailure(kind string, code Code) {
	if m == nil {
		return
	}
	m.resolveFailures.WithLabelValues(kind, code.String()).Inc()
}
