package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "naboopay"

// Metrics groups the collectors of the gateway. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Transactions    *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	Webhooks        *prometheus.CounterVec
}

// New registers the collectors on reg, or on the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transaction creation attempts by outcome.",
		}, []string{"outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Latency of calls to the Naboopay API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		Webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Webhook deliveries by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.Transactions, m.ProviderLatency, m.Webhooks)
	return m
}

func (m *Metrics) ObserveTransaction(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(outcome).Inc()
	m.ProviderLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveWebhook(outcome string) {
	if m == nil {
		return
	}
	m.Webhooks.WithLabelValues(outcome).Inc()
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
