package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors on a dedicated
// registry so tests can run side by side without collisions. It
// satisfies the relay engine's metrics interface.
type Metrics struct {
	registry *prometheus.Registry

	webhooksReceived  *prometheus.CounterVec
	messagesQueued    *prometheus.CounterVec
	messagesDelivered prometheus.Counter
	sendFailures      *prometheus.CounterVec
	pollRequests      *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		webhooksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loglink",
			Name:      "webhooks_received_total",
			Help:      "Webhook deliveries received, by provider.",
		}, []string{"provider"}),
		messagesQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loglink",
			Name:      "messages_queued_total",
			Help:      "Messages accepted into user queues, by provider.",
		}, []string{"provider"}),
		messagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loglink",
			Name:      "messages_delivered_total",
			Help:      "Messages handed to polling clients.",
		}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loglink",
			Name:      "send_failures_total",
			Help:      "Outbound channel send failures, by provider.",
		}, []string{"provider"}),
		pollRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loglink",
			Name:      "poll_requests_total",
			Help:      "Poll requests, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.webhooksReceived,
		m.messagesQueued,
		m.messagesDelivered,
		m.sendFailures,
		m.pollRequests,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) WebhookReceived(provider string) {
	m.webhooksReceived.WithLabelValues(provider).Inc()
}

func (m *Metrics) MessageQueued(provider string) {
	m.messagesQueued.WithLabelValues(provider).Inc()
}

func (m *Metrics) MessagesDelivered(n int) {
	m.messagesDelivered.Add(float64(n))
}

func (m *Metrics) SendFailure(provider string) {
	m.sendFailures.WithLabelValues(provider).Inc()
}

func (m *Metrics) PollServed(outcome string) {
	m.pollRequests.WithLabelValues(outcome).Inc()
}
