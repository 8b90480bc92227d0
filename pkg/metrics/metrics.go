package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RaffleMetrics records the money-path counters for the raffle engine.
type RaffleMetrics struct {
	registry         *prometheus.Registry
	sessionsCreated  prometheus.Counter
	purchases        prometheus.Counter
	purchaseRejects  *prometheus.CounterVec
	drawsCompleted   prometheus.Counter
	gatewayFailures  prometheus.Counter
	remainingQueries prometheus.Counter
}

// New registers the raffle metrics on a private registry.
func New() *RaffleMetrics {
	registry := prometheus.NewRegistry()
	m := &RaffleMetrics{
		registry: registry,
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "checkout_sessions_created_total",
			Help: "Checkout sessions opened with the payment gateway.",
		}),
		purchases: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entries_confirmed_total",
			Help: "Entry purchases confirmed into the ledger.",
		}),
		purchaseRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entry_rejections_total",
			Help: "Entry purchases rejected, labelled by reason.",
		}, []string{"reason"}),
		drawsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "draws_completed_total",
			Help: "Raffle draws completed.",
		}),
		gatewayFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_failures_total",
			Help: "Payment gateway calls that failed.",
		}),
		remainingQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remaining_spot_queries_total",
			Help: "Remaining-spot ledger reads.",
		}),
	}
	registry.MustRegister(
		m.sessionsCreated,
		m.purchases,
		m.purchaseRejects,
		m.drawsCompleted,
		m.gatewayFailures,
		m.remainingQueries,
	)
	return m
}

// Handler exposes the registry for the /metrics endpoint.
func (m *RaffleMetrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncSessionCreated counts a successfully opened checkout session.
func (m *RaffleMetrics) IncSessionCreated() {
	if m != nil && m.sessionsCreated != nil {
		m.sessionsCreated.Inc()
	}
}

// IncPurchaseConfirmed counts a confirmed entry purchase.
func (m *RaffleMetrics) IncPurchaseConfirmed() {
	if m != nil && m.purchases != nil {
		m.purchases.Inc()
	}
}

// IncPurchaseRejected counts a rejected purchase with its reason label.
func (m *RaffleMetrics) IncPurchaseRejected(reason string) {
	if m != nil && m.purchaseRejects != nil {
		m.purchaseRejects.WithLabelValues(reason).Inc()
	}
}

// IncDrawCompleted counts a completed draw.
func (m *RaffleMetrics) IncDrawCompleted() {
	if m != nil && m.drawsCompleted != nil {
		m.drawsCompleted.Inc()
	}
}

// IncGatewayFailure counts a failed gateway call.
func (m *RaffleMetrics) IncGatewayFailure() {
	if m != nil && m.gatewayFailures != nil {
		m.gatewayFailures.Inc()
	}
}

// IncRemainingQuery counts a ledger read.
func (m *RaffleMetrics) IncRemainingQuery() {
	if m != nil && m.remainingQueries != nil {
		m.remainingQueries.Inc()
	}
}
