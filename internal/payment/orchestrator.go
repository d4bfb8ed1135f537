// Package payment drives the two-phase payment protocol: create an intent
// against the gateway, then confirm it and atomically materialize a
// transaction in the ledger.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gfontenele/quickshop/internal/domain"
	"github.com/gfontenele/quickshop/internal/gateway"
	"github.com/gfontenele/quickshop/internal/ledger"
	"github.com/gfontenele/quickshop/internal/telemetry"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrGateway             = errors.New("payment gateway unavailable")
)

const fallbackEmail = "guest@quickshop.com"

// Metadata keys embedded in every intent so a sale can be audited from the
// gateway side even if the local transaction is never written.
const (
	metaOrderID       = "orderId"
	metaCustomerEmail = "customerEmail"
	metaOrderItems    = "orderItems"
)

type Orchestrator struct {
	gateway gateway.PaymentGateway
	ledger  ledger.Log
	metrics *telemetry.CheckoutMetrics
	logger  *slog.Logger
}

func NewOrchestrator(gw gateway.PaymentGateway, log ledger.Log, metrics *telemetry.CheckoutMetrics, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gateway: gw,
		ledger:  log,
		metrics: metrics,
		logger:  logger,
	}
}

// IntentRef is what the client needs to drive gateway-side authorization.
type IntentRef struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	OrderID         string `json:"orderId"`
}

// CreateIntent asks the gateway for a payment intent covering the frozen
// cart snapshot. The amount is derived from the snapshot server-side; a
// client-submitted amount is never trusted. Amounts that are not positive
// are rejected before the gateway is contacted.
func (o *Orchestrator) CreateIntent(ctx context.Context, snap domain.CartSnapshot, customerEmail string) (*IntentRef, error) {
	if !snap.Total.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, snap.Total)
	}

	if customerEmail == "" {
		customerEmail = fallbackEmail
	}

	orderID := uuid.New().String()

	items, err := json.Marshal(snap.Lines)
	if err != nil {
		return nil, fmt.Errorf("marshal cart snapshot: %w", err)
	}

	intent, err := o.gateway.CreateIntent(ctx, gateway.CreateIntentParams{
		Amount:   snap.Total.MinorUnits,
		Currency: snap.Total.Currency,
		Metadata: map[string]string{
			metaOrderID:       orderID,
			metaCustomerEmail: customerEmail,
			metaOrderItems:    string(items),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w: %w", ErrGateway, err)
	}

	o.logger.Info("payment intent created",
		"payment_intent_id", intent.ID,
		"order_id", orderID,
		"amount", snap.Total.String(),
	)

	return &IntentRef{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		OrderID:         orderID,
	}, nil
}

// ConfirmAndRecord re-fetches the intent from the gateway (the client's
// claim of success is never trusted) and, if it succeeded, appends a
// transaction built from the gateway's settled amount and currency. This
// is the single point where a sale becomes final.
//
// Confirming the same intent twice returns the already-recorded
// transaction instead of appending a second one.
func (o *Orchestrator) ConfirmAndRecord(ctx context.Context, paymentIntentID, customerEmail string, shipping *domain.Address) (*domain.Transaction, error) {
	existing, err := o.ledger.FindByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("check for existing transaction: %w", err)
	}
	if existing != nil {
		o.logger.Info("confirmation replayed, returning recorded transaction",
			"payment_intent_id", paymentIntentID,
			"transaction_id", existing.ID,
		)
		return existing, nil
	}

	intent, err := o.gateway.GetIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent: %w: %w", ErrGateway, err)
	}

	if intent.Status != gateway.StatusSucceeded {
		o.metrics.RecordPaymentFailure(ctx, intent.Status)
		return nil, fmt.Errorf("%w: intent status is %q", ErrPaymentNotCompleted, intent.Status)
	}

	tx := &domain.Transaction{
		ID:              uuid.New().String(),
		PaymentIntentID: intent.ID,
		OrderID:         intent.Metadata[metaOrderID],
		CustomerEmail:   customerEmail,
		Amount:          domain.NewMoney(intent.Amount, intent.Currency),
		Status:          domain.TransactionStatusCompleted,
		Lines:           o.linesFromMetadata(intent),
		ShippingAddress: shipping,
		CreatedAt:       time.Now().UTC(),
	}
	if tx.CustomerEmail == "" {
		tx.CustomerEmail = intent.Metadata[metaCustomerEmail]
	}

	if err := o.ledger.Append(ctx, tx); err != nil {
		if errors.Is(err, ledger.ErrDuplicateIntent) {
			// Lost a race with a concurrent confirm; the other one won.
			return o.ledger.FindByPaymentIntentID(ctx, paymentIntentID)
		}
		o.metrics.RecordUnrecordedSale(ctx)
		o.logger.Error("PAID BUT UNRECORDED: gateway confirmed the charge but the ledger append failed",
			"error", err,
			"payment_intent_id", paymentIntentID,
			"amount", tx.Amount.String(),
		)
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	o.metrics.RecordCompleted(ctx, tx.Amount.MinorUnits, tx.Amount.Currency)
	o.logger.Info("transaction recorded",
		"transaction_id", tx.ID,
		"payment_intent_id", tx.PaymentIntentID,
		"order_id", tx.OrderID,
		"amount", tx.Amount.String(),
	)

	return tx, nil
}

// linesFromMetadata restores the cart snapshot serialized at intent
// creation. The metadata copy is authoritative for what was bought; a
// decode failure is logged but does not block recording the sale.
func (o *Orchestrator) linesFromMetadata(intent *gateway.Intent) []domain.CartLine {
	raw := intent.Metadata[metaOrderItems]
	if raw == "" {
		return nil
	}

	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		o.logger.Error("failed to decode cart snapshot from intent metadata",
			"error", err,
			"payment_intent_id", intent.ID,
		)
		return nil
	}
	return lines
}
