// internal/app/system/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the membership engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Joins by path: direct, invitation, join_request
	Joins *prometheus.CounterVec

	// Join attempts refused because the user already holds a professional membership
	ExclusivityViolations prometheus.Counter

	// Privacy cascades that changed at least one flag, and the flags they changed
	Cascades        prometheus.Counter
	CascadedFields  *prometheus.CounterVec
	BlockedFields   *prometheus.CounterVec
	PrivacyUpdates  prometheus.Counter
	AlertWriteFails prometheus.Counter

	// Lifecycle transitions by target status
	Invitations  *prometheus.CounterVec
	JoinRequests *prometheus.CounterVec

	InvitationsExpired prometheus.Counter

	// Engine operation latency by operation name
	OperationDuration *prometheus.HistogramVec
}

// New creates a Metrics instance with every metric registered on reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Joins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildhall_group_joins_total",
			Help: "Total memberships created by join path",
		}, []string{"via"}),

		ExclusivityViolations: f.NewCounter(prometheus.CounterOpts{
			Name: "guildhall_exclusivity_violations_total",
			Help: "Total join attempts refused by the professional group exclusivity rule",
		}),

		Cascades: f.NewCounter(prometheus.CounterOpts{
			Name: "guildhall_privacy_cascades_total",
			Help: "Total category cascades that changed at least one privacy flag",
		}),
		CascadedFields: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildhall_privacy_cascaded_fields_total",
			Help: "Privacy flags forced off by category cascades, by field",
		}, []string{"field"}),
		BlockedFields: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildhall_privacy_blocked_fields_total",
			Help: "Privacy edits stripped because a category forces the field hidden, by field",
		}, []string{"field"}),
		PrivacyUpdates: f.NewCounter(prometheus.CounterOpts{
			Name: "guildhall_privacy_updates_total",
			Help: "Total user privacy edits that changed at least one flag",
		}),
		AlertWriteFails: f.NewCounter(prometheus.CounterOpts{
			Name: "guildhall_admin_alert_write_failures_total",
			Help: "Admin alerts that could not be written",
		}),

		Invitations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildhall_invitation_transitions_total",
			Help: "Invitation lifecycle transitions by resulting status",
		}, []string{"status"}),
		JoinRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildhall_join_request_transitions_total",
			Help: "Join request lifecycle transitions by resulting status and authority tier",
		}, []string{"status", "authority"}),

		InvitationsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "guildhall_invitations_expired_total",
			Help: "Invitations persisted as expired by the sweep worker",
		}),

		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guildhall_engine_operation_duration_seconds",
			Help:    "Duration of membership engine operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

// IncrementJoin records a created membership.
func (m *Metrics) IncrementJoin(via string) {
	if m != nil {
		m.Joins.WithLabelValues(via).Inc()
	}
}

// IncrementExclusivityViolation records a refused professional join.
func (m *Metrics) IncrementExclusivityViolation() {
	if m != nil {
		m.ExclusivityViolations.Inc()
	}
}

// IncrementAlertWriteFailure records an admin alert that was dropped.
func (m *Metrics) IncrementAlertWriteFailure() {
	if m != nil {
		m.AlertWriteFails.Inc()
	}
}

// ObserveCascade records a cascade and the fields it forced off.
func (m *Metrics) ObserveCascade(fields []string) {
	if m == nil || len(fields) == 0 {
		return
	}
	m.Cascades.Inc()
	for _, f := range fields {
		m.CascadedFields.WithLabelValues(f).Inc()
	}
}

// ObservePrivacyUpdate records a user edit: the fields stripped and whether anything changed.
func (m *Metrics) ObservePrivacyUpdate(blocked []string, changed int) {
	if m == nil {
		return
	}
	for _, f := range blocked {
		m.BlockedFields.WithLabelValues(f).Inc()
	}
	if changed > 0 {
		m.PrivacyUpdates.Inc()
	}
}

// IncrementInvitation records an invitation reaching status.
func (m *Metrics) IncrementInvitation(status string) {
	if m != nil {
		m.Invitations.WithLabelValues(status).Inc()
	}
}

// IncrementJoinRequest records a join request reaching status under an authority tier.
func (m *Metrics) IncrementJoinRequest(status, authority string) {
	if m != nil {
		m.JoinRequests.WithLabelValues(status, authority).Inc()
	}
}

// AddInvitationsExpired records one sweep's worth of expirations.
func (m *Metrics) AddInvitationsExpired(n int64) {
	if m != nil && n > 0 {
		m.InvitationsExpired.Add(float64(n))
	}
}

// ObserveOperation records how long an engine operation took.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	if m != nil {
		m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
