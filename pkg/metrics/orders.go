package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks checkout throughput and lifecycle transitions.
type OrderMetrics struct {
	created         *prometheus.CounterVec
	checkoutFailure *prometheus.CounterVec
	statusChanges   *prometheus.CounterVec
	paymentSessions *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on reg. A nil registerer yields
// a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders created at checkout.",
		}, []string{"payment_method"}),
		checkoutFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "checkout_failures_total",
			Help:      "Checkout attempts rejected before an order was written.",
		}, []string{"code"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "status_changes_total",
			Help:      "Order status writes by target status and source.",
		}, []string{"status", "source"}),
		paymentSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "sessions_total",
			Help:      "Hosted checkout session creation attempts.",
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Payment gateway webhook deliveries by event type and outcome.",
		}, []string{"type", "outcome"}),
	}
	reg.MustRegister(m.created, m.checkoutFailure, m.statusChanges, m.paymentSessions, m.webhookEvents)
	return m
}

func (m *OrderMetrics) IncCreated(paymentMethod string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(labelOrUnknown(paymentMethod)).Inc()
}

func (m *OrderMetrics) IncCheckoutFailure(code string) {
	if m == nil || m.checkoutFailure == nil {
		return
	}
	m.checkoutFailure.WithLabelValues(labelOrUnknown(code)).Inc()
}

func (m *OrderMetrics) IncStatusChange(status, source string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(labelOrUnknown(status), labelOrUnknown(source)).Inc()
}

func (m *OrderMetrics) IncPaymentSession(outcome string) {
	if m == nil || m.paymentSessions == nil {
		return
	}
	m.paymentSessions.WithLabelValues(labelOrUnknown(outcome)).Inc()
}

func (m *OrderMetrics) IncWebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(labelOrUnknown(eventType), labelOrUnknown(outcome)).Inc()
}
