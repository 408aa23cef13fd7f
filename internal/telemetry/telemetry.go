package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Telemetry holds the prometheus collectors for the agent service. A nil
// *Telemetry is valid and records nothing, which keeps tests quiet.
type Telemetry struct {
	sessions        *prometheus.CounterVec
	sessionDuration prometheus.Histogram
	steps           prometheus.Counter
	toolInvocations *prometheus.CounterVec
	remoteRetries   prometheus.Counter
}

// New registers the agent collectors with reg (use
// prometheus.DefaultRegisterer for the server's /metrics endpoint).
func New(reg prometheus.Registerer) *Telemetry {
	factory := promauto.With(reg)
	return &Telemetry{
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maqal_agent_sessions_total",
			Help: "Completed agent sessions by outcome.",
		}, []string{"outcome"}),
		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "maqal_agent_session_duration_seconds",
			Help:    "Wall-clock duration of agent sessions.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		steps: factory.NewCounter(prometheus.CounterOpts{
			Name: "maqal_agent_steps_total",
			Help: "Model-turn steps executed across all sessions.",
		}),
		toolInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "maqal_agent_tool_invocations_total",
			Help: "Tool contract executions by tool name and result.",
		}, []string{"tool", "result"}),
		remoteRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "maqal_remote_retries_total",
			Help: "Backoff retries against rate-limited remote capabilities.",
		}),
	}
}

func (t *Telemetry) RecordSession(outcome string, d time.Duration) {
	if t == nil {
		return
	}
	t.sessions.WithLabelValues(outcome).Inc()
	t.sessionDuration.Observe(d.Seconds())
}

func (t *Telemetry) RecordStep() {
	if t == nil {
		return
	}
	t.steps.Inc()
}

func (t *Telemetry) RecordTool(tool string, success bool) {
	if t == nil {
		return
	}
	result := "ok"
	if !success {
		result = "failed"
	}
	t.toolInvocations.WithLabelValues(tool, result).Inc()
}

func (t *Telemetry) RecordRemoteRetry() {
	if t == nil {
		return
	}
	t.remoteRetries.Inc()
}
