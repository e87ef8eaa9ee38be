package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Invoicing records invoice issuance, webhook reconciliation and best-effort
// side effects. A nil *Invoicing is a valid no-op recorder.
type Invoicing struct {
	created      *prometheus.CounterVec
	events       *prometheus.CounterVec
	sideEffects  *prometheus.CounterVec
	emails       *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewInvoicing registers the invoicing metrics on the provided registerer.
func NewInvoicing(reg prometheus.Registerer) *Invoicing {
	if reg == nil {
		return &Invoicing{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicing_links_created_total",
		Help: "Payment links issued, by flow (invoice or payment_link).",
	}, []string{"flow"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicing_webhook_events_total",
		Help: "Payment webhook events by type and outcome.",
	}, []string{"type", "outcome"})
	sideEffects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicing_side_effect_failures_total",
		Help: "Best-effort steps that failed and were swallowed.",
	}, []string{"step"})
	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicing_emails_total",
		Help: "Email deliveries by result.",
	}, []string{"result"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(created, events, sideEffects, emails, httpDuration)
	return &Invoicing{
		created:      created,
		events:       events,
		sideEffects:  sideEffects,
		emails:       emails,
		httpDuration: httpDuration,
	}
}

func (m *Invoicing) IncCreated(flow string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(flow)).Inc()
}

func (m *Invoicing) IncWebhookEvent(eventType, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func (m *Invoicing) IncSideEffectFailure(step string) {
	if m == nil || m.sideEffects == nil {
		return
	}
	m.sideEffects.WithLabelValues(normalizeLabel(step)).Inc()
}

// ObserveEmail matches the mailer delivery hook signature.
func (m *Invoicing) ObserveEmail(delivered bool) {
	if m == nil || m.emails == nil {
		return
	}
	result := "failed"
	if delivered {
		result = "sent"
	}
	m.emails.WithLabelValues(result).Inc()
}

func (m *Invoicing) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
