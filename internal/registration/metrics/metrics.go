// Package metrics exposes registration-domain Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds registration counters.
type Metrics struct {
	registered         prometheus.Counter
	unregistered       prometheus.Counter
	capacityRejections prometheus.Counter
}

// New creates and registers the registration metrics.
func New() *Metrics {
	return &Metrics{
		registered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "volunity_registrations_total",
			Help: "Total number of successful event registrations, rejoins included",
		}),
		unregistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "volunity_unregistrations_total",
			Help: "Total number of cancelled registrations",
		}),
		capacityRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "volunity_registration_capacity_rejections_total",
			Help: "Total number of registrations rejected because the event was full",
		}),
	}
}

// IncRegistered counts a successful registration or rejoin.
func (m *Metrics) IncRegistered() {
	if m != nil {
		m.registered.Inc()
	}
}

// IncUnregistered counts a successful unregistration.
func (m *Metrics) IncUnregistered() {
	if m != nil {
		m.unregistered.Inc()
	}
}

// IncCapacityRejected counts a registration turned away by a full event.
func (m *Metrics) IncCapacityRejected() {
	if m != nil {
		m.capacityRejections.Inc()
	}
}
