// Package metrics holds the Prometheus collectors for the ledger, the campaign
// state machine and the webhook intake. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sms_campaigns"

type Metrics struct {
	reg *prometheus.Registry

	ledgerOps          *prometheus.CounterVec
	ledgerAmount       *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	webhookEvents      *prometheus.CounterVec
	completionJobs     *prometheus.CounterVec
	completionsPending prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		ledgerOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Ledger operations partitioned by operation and result.",
			},
			[]string{"op", "result"},
		),
		ledgerAmount: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "amount_total",
				Help:      "Sum of committed ledger amounts in minor units, by entry kind.",
			},
			[]string{"kind"},
		),
		transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "campaign",
				Name:      "transitions_total",
				Help:      "Campaign trigger attempts partitioned by trigger and result.",
			},
			[]string{"trigger", "result"},
		),
		webhookEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "webhook",
				Name:      "events_total",
				Help:      "Payment webhook deliveries partitioned by outcome.",
			},
			[]string{"result"},
		),
		completionJobs: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "completion_jobs_total",
				Help:      "Deferred completion jobs processed, by result.",
			},
			[]string{"result"},
		),
		completionsPending: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "completions_pending",
				Help:      "Completion jobs waiting in the schedule at the last poll.",
			},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) LedgerOp(op, result string) {
	if m == nil {
		return
	}
	m.ledgerOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) LedgerAmount(kind string, amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.ledgerAmount.WithLabelValues(kind).Add(float64(amount))
}

func (m *Metrics) Transition(trigger, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(trigger, result).Inc()
}

func (m *Metrics) WebhookEvent(result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(result).Inc()
}

func (m *Metrics) CompletionJob(result string) {
	if m == nil {
		return
	}
	m.completionJobs.WithLabelValues(result).Inc()
}

func (m *Metrics) CompletionsPending(n int64) {
	if m == nil {
		return
	}
	m.completionsPending.Set(float64(n))
}
