package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CheckoutMetrics holds the counters the payment pipeline reports.
// A nil receiver is a no-op so tests and broker-less wiring can skip it.
type CheckoutMetrics struct {
	completed       metric.Int64Counter
	revenueMinor    metric.Int64Counter
	paymentFailures metric.Int64Counter
	unrecordedSales metric.Int64Counter
}

func NewCheckoutMetrics() (*CheckoutMetrics, error) {
	meter := otel.Meter("quickshop/checkout")

	completed, err := meter.Int64Counter("quickshop.checkout.completed",
		metric.WithDescription("Checkouts that reached a recorded transaction"))
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Int64Counter("quickshop.checkout.revenue_minor_units",
		metric.WithDescription("Recorded revenue in currency minor units"))
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("quickshop.payment.failures",
		metric.WithDescription("Payment confirmations that did not succeed"))
	if err != nil {
		return nil, err
	}

	unrecorded, err := meter.Int64Counter("quickshop.sales.unrecorded",
		metric.WithDescription("Gateway-confirmed charges the ledger failed to record"))
	if err != nil {
		return nil, err
	}

	return &CheckoutMetrics{
		completed:       completed,
		revenueMinor:    revenue,
		paymentFailures: failures,
		unrecordedSales: unrecorded,
	}, nil
}

func (m *CheckoutMetrics) RecordCompleted(ctx context.Context, amountMinor int64, currency string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("currency", currency))
	m.completed.Add(ctx, 1, attrs)
	m.revenueMinor.Add(ctx, amountMinor, attrs)
}

func (m *CheckoutMetrics) RecordPaymentFailure(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.paymentFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordUnrecordedSale counts the one failure mode that needs operator
// follow-up: the gateway charged the customer but the append failed.
func (m *CheckoutMetrics) RecordUnrecordedSale(ctx context.Context) {
	if m == nil {
		return
	}
	m.unrecordedSales.Add(ctx, 1)
}
