// Package metrics provides Prometheus metrics for session operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for session operations.
type Metrics struct {
	enabled bool

	// Auth operation metrics
	authAttemptsTotal *prometheus.CounterVec
	authFailuresTotal *prometheus.CounterVec

	// Refresh-and-replay metrics
	refreshTotal *prometheus.CounterVec
	replayTotal  prometheus.Counter

	// Session state
	sessionState prometheus.Gauge

	// Admin console metrics
	adminRequestsTotal *prometheus.CounterVec
}

// New creates and registers Prometheus metrics.
// If enabled is false, returns a no-op Metrics instance.
func New(enabled bool) *Metrics {
	m := &Metrics{enabled: enabled}

	if !enabled {
		return m
	}

	m.authAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authware_auth_attempts_total",
		Help: "Total authentication attempts",
	}, []string{"method", "result"})

	m.authFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authware_auth_failures_total",
		Help: "Total authentication failures",
	}, []string{"method", "reason"})

	m.refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authware_token_refresh_total",
		Help: "Total token refresh attempts",
	}, []string{"result"})

	m.replayTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authware_request_replays_total",
		Help: "Total requests replayed after a token refresh",
	})

	m.sessionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authware_session_authenticated",
		Help: "Session state (0=unauthenticated, 1=authenticated)",
	})

	m.adminRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authware_admin_requests_total",
		Help: "Total admin console requests",
	}, []string{"operation", "result"})

	return m
}

// RecordAuthAttempt records the outcome of an authentication attempt.
// method is the operation name (login, register, google_login, ...).
func (m *Metrics) RecordAuthAttempt(method, result string) {
	if !m.enabled {
		return
	}
	m.authAttemptsTotal.WithLabelValues(method, result).Inc()
}

// RecordAuthFailure records a failed authentication with a reason.
func (m *Metrics) RecordAuthFailure(method, reason string) {
	if !m.enabled {
		return
	}
	m.authFailuresTotal.WithLabelValues(method, reason).Inc()
}

// RecordRefresh records a token refresh outcome ("success" or "failure").
func (m *Metrics) RecordRefresh(result string) {
	if !m.enabled {
		return
	}
	m.refreshTotal.WithLabelValues(result).Inc()
}

// RecordReplay records one request replayed after a refresh.
func (m *Metrics) RecordReplay() {
	if !m.enabled {
		return
	}
	m.replayTotal.Inc()
}

// SetAuthenticated sets the session state gauge.
func (m *Metrics) SetAuthenticated(authenticated bool) {
	if !m.enabled {
		return
	}
	state := 0.0
	if authenticated {
		state = 1.0
	}
	m.sessionState.Set(state)
}

// RecordAdminRequest records an admin console operation outcome.
func (m *Metrics) RecordAdminRequest(operation, result string) {
	if !m.enabled {
		return
	}
	m.adminRequestsTotal.WithLabelValues(operation, result).Inc()
}
