package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the policy counters exported on /metrics.
type Metrics struct {
	ClientsActive   prometheus.Gauge
	PriorityActive  prometheus.Gauge
	RoutingCreated  prometheus.Counter
	RoutingFailures *prometheus.CounterVec
	Decisions       *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ClientsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "audiopolicy",
			Name:      "clients_active",
			Help:      "Clients currently registered.",
		}),
		PriorityActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "audiopolicy",
			Name:      "priority_clients_active",
			Help:      "Registered clients holding a priority role.",
		}),
		RoutingCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "audiopolicy",
			Name:      "routing_created_total",
			Help:      "Routing handles created for clients.",
		}),
		RoutingFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "audiopolicy",
			Name:      "routing_failures_total",
			Help:      "Failed routing operations by stage.",
		}, []string{"stage"}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "audiopolicy",
			Name:      "decisions_total",
			Help:      "Policy decisions by action.",
		}, []string{"action"}),
	}
}
