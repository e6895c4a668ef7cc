// Package metrics exposes the service's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bazaar"

type Metrics struct {
	registry          *prometheus.Registry
	votesCast         *prometheus.CounterVec
	reportsFiled      *prometheus.CounterVec
	moderationActions *prometheus.CounterVec
	compensations     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		votesCast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Total number of vote toggles by target type and resulting vote.",
		}, []string{"target_type", "outcome"}),
		reportsFiled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_filed_total",
			Help:      "Total number of reports filed by item type.",
		}, []string{"item_type"}),
		moderationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_actions_total",
			Help:      "Total number of moderation actions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_compensations_total",
			Help:      "Total number of compensating report reopens by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.votesCast,
		m.reportsFiled,
		m.moderationActions,
		m.compensations,
	)

	return m
}

func (m *Metrics) VoteCast(targetType, outcome string) {
	m.votesCast.WithLabelValues(targetType, outcome).Inc()
}

func (m *Metrics) ReportFiled(itemType string) {
	m.reportsFiled.WithLabelValues(itemType).Inc()
}

func (m *Metrics) ModerationAction(kind, outcome string) {
	m.moderationActions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Compensation(result string) {
	m.compensations.WithLabelValues(result).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
