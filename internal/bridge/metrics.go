package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "xbridge"

// Attestation outcomes used as the "outcome" label.
const (
	outcomePending  = "pending"
	outcomePromoted = "promoted"
	outcomeRejected = "rejected"
)

// Metrics holds the bridge's prometheus collectors.
type Metrics struct {
	attestations *prometheus.CounterVec
	promotions   prometheus.Counter
	outbound     prometheus.Counter
	dispatches   *prometheus.CounterVec
	validators   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		attestations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attestations_total",
			Help:      "validator attestations by outcome",
		}, []string{"outcome"}),
		promotions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_total",
			Help:      "pending slots promoted to executable",
		}),
		outbound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_messages_total",
			Help:      "messages appended to the outbound log",
		}),
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "dispatch attempts by outcome",
		}, []string{"outcome"}),
		validators: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "validators",
			Help:      "current size of the validator set",
		}),
	}
}
