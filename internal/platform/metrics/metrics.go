package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the auth backend.
type Metrics struct {
	UsersRegistered prometheus.Counter
	LoginSuccesses  prometheus.Counter
	LoginFailures   prometheus.Counter
	LockoutsActive  prometheus.Gauge
	LockoutsTotal   prometheus.Counter
	ActiveSessions  prometheus.Gauge
	PasswordChanges prometheus.Counter
	SessionsSwept   prometheus.Counter
	HashLatency     prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_users_registered_total",
			Help: "Total number of users registered",
		}),
		LoginSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_login_successes_total",
			Help: "Total number of successful logins",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		LockoutsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "casefile_lockouts_active",
			Help: "Current number of locked identities",
		}),
		LockoutsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_lockouts_total",
			Help: "Total number of lockouts triggered",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "casefile_active_sessions",
			Help: "Current number of active sessions",
		}),
		PasswordChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_password_changes_total",
			Help: "Total number of completed password changes",
		}),
		SessionsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "casefile_sessions_swept_total",
			Help: "Total number of expired sessions removed by cleanup",
		}),
		HashLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "casefile_password_hash_latency_seconds",
			Help:    "Latency of scrypt key derivations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncrementUsersRegistered increments the registration counter by 1.
func (m *Metrics) IncrementUsersRegistered() {
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncrementLoginSuccesses() {
	m.LoginSuccesses.Inc()
}

func (m *Metrics) IncrementLoginFailures() {
	m.LoginFailures.Inc()
}

func (m *Metrics) IncrementLockouts() {
	m.LockoutsTotal.Inc()
	m.LockoutsActive.Inc()
}

func (m *Metrics) DecrementActiveLockouts(count int) {
	m.LockoutsActive.Sub(float64(count))
}

func (m *Metrics) IncrementActiveSessions(count int) {
	m.ActiveSessions.Add(float64(count))
}

func (m *Metrics) DecrementActiveSessions(count int) {
	m.ActiveSessions.Sub(float64(count))
}

func (m *Metrics) IncrementPasswordChanges() {
	m.PasswordChanges.Inc()
}

func (m *Metrics) AddSessionsSwept(count int) {
	m.SessionsSwept.Add(float64(count))
}

// ObserveHashLatency records one scrypt derivation duration in seconds.
func (m *Metrics) ObserveHashLatency(seconds float64) {
	m.HashLatency.Observe(seconds)
}
