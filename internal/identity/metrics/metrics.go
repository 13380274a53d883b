// Package metrics exposes identity-domain Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds identity counters.
type Metrics struct {
	usersCreated   prometheus.Counter
	emailsVerified prometheus.Counter
}

// New creates and registers the identity metrics.
func New() *Metrics {
	return &Metrics{
		usersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "volunity_users_created_total",
			Help: "Total number of accounts created",
		}),
		emailsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "volunity_emails_verified_total",
			Help: "Total number of email addresses verified",
		}),
	}
}

// IncUsersCreated counts a successful signup.
func (m *Metrics) IncUsersCreated() {
	if m != nil {
		m.usersCreated.Inc()
	}
}

// IncEmailsVerified counts a successful email verification.
func (m *Metrics) IncEmailsVerified() {
	if m != nil {
		m.emailsVerified.Inc()
	}
}
