package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/payments-service/pkg/enums"
)

// PaymentMetrics counts payment outcomes and charged amounts.
type PaymentMetrics struct {
	processed *prometheus.CounterVec
	refunded  prometheus.Counter
	amount    *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
// A nil registerer yields a recorder that drops every observation.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_processed_total",
		Help: "Payments resolved by the gateway, by final status.",
	}, []string{"status"})
	refunded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_refunded_total",
		Help: "Payments moved to REFUNDED.",
	})
	amount := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_amount",
		Help:    "Requested payment amounts in major currency units.",
		Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 10000},
	}, []string{"status"})
	reg.MustRegister(processed, refunded, amount)
	return &PaymentMetrics{
		processed: processed,
		refunded:  refunded,
		amount:    amount,
	}
}

// PaymentProcessed records a resolved payment.
func (m *PaymentMetrics) PaymentProcessed(status enums.PaymentStatus, amount decimal.Decimal) {
	if m == nil || m.processed == nil {
		return
	}
	label := normalizeLabel(status.String())
	m.processed.WithLabelValues(label).Inc()
	m.amount.WithLabelValues(label).Observe(amount.InexactFloat64())
}

// PaymentRefunded records a successful refund.
func (m *PaymentMetrics) PaymentRefunded() {
	if m == nil || m.refunded == nil {
		return
	}
	m.refunded.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
