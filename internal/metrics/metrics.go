// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "proposal_api"

// Metrics groups HTTP and domain collectors
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ProposalsCreated     *prometheus.CounterVec
	ProposalsDeleted     prometheus.Counter
	Acceptances          *prometheus.CounterVec
	CheckoutsCreated     *prometheus.CounterVec
	CheckoutFailures     *prometheus.CounterVec
	SettlementsRecorded  prometheus.Counter
	WebhookEvents        *prometheus.CounterVec
	SignatureFailures    prometheus.Counter
	NotificationFailures prometheus.Counter
	PhrasesGenerated     *prometheus.CounterVec
	LoginAttempts        *prometheus.CounterVec
	KVReaped             prometheus.Counter
}

// New creates the collectors on a dedicated registry with Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ProposalsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_created_total",
			Help:      "Proposals created by type",
		}, []string{"type"}),
		ProposalsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_deleted_total",
			Help:      "Proposals deleted by the operator",
		}),
		Acceptances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposal_acceptances_total",
			Help:      "Client acceptances by proposal type",
		}, []string{"type"}),
		CheckoutsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_created_total",
			Help:      "Payment links created by proposal type and down payment",
		}, []string{"type", "down_payment"}),
		CheckoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Failed payment link creations by reason",
		}, []string{"reason"}),
		SettlementsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_recorded_total",
			Help:      "Payments correlated to a proposal",
		}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Payment webhooks by outcome",
		}, []string{"outcome"}),
		SignatureFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_signature_failures_total",
			Help:      "Webhooks rejected for a bad signature",
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Operator notifications that could not be delivered",
		}),
		PhrasesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_phrases_total",
			Help:      "AI phrase requests by outcome",
		}, []string{"outcome"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_login_attempts_total",
			Help:      "Operator logins by outcome",
		}, []string{"outcome"}),
		KVReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kv_expired_rows_reaped_total",
			Help:      "Expired SQL store rows removed by the reaper job",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ProposalsCreated,
		m.ProposalsDeleted,
		m.Acceptances,
		m.CheckoutsCreated,
		m.CheckoutFailures,
		m.SettlementsRecorded,
		m.WebhookEvents,
		m.SignatureFailures,
		m.NotificationFailures,
		m.PhrasesGenerated,
		m.LoginAttempts,
		m.KVReaped,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
