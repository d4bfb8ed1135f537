// Package checkout composes the cart store, payment orchestrator,
// transaction ledger, and notifier into the end-to-end purchase flow.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gfontenele/quickshop/internal/cart"
	"github.com/gfontenele/quickshop/internal/catalog"
	"github.com/gfontenele/quickshop/internal/domain"
	"github.com/gfontenele/quickshop/internal/messaging"
	"github.com/gfontenele/quickshop/internal/payment"
)

var (
	ErrEmptyCart      = errors.New("cart is empty, nothing to checkout")
	ErrUnknownProduct = errors.New("unknown product in cart")
)

// TopicTransactionRecorded carries TransactionRecordedEvent payloads.
const TopicTransactionRecorded = "transaction.recorded"

// Notifier delivers the order confirmation. Failures are surfaced to the
// orchestrator but never fail a checkout: the sale is already final.
type Notifier interface {
	SendConfirmation(ctx context.Context, recipient string, tx *domain.Transaction) error
}

type Orchestrator struct {
	carts    *cart.Store
	catalog  catalog.Lookup
	payments *payment.Orchestrator
	producer *messaging.Producer
	notifier Notifier
	logger   *slog.Logger
}

// NewOrchestrator wires the flow. producer and notifier may be nil when
// the deployment has no broker or email service.
func NewOrchestrator(carts *cart.Store, lookup catalog.Lookup, payments *payment.Orchestrator, producer *messaging.Producer, notifier Notifier, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		carts:    carts,
		catalog:  lookup,
		payments: payments,
		producer: producer,
		notifier: notifier,
		logger:   logger,
	}
}

// ClientLine is the advisory cart the client submits at checkout. Only the
// product id and quantity are used; prices are re-derived from the catalog.
type ClientLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// BeginCheckout freezes the session's cart and creates a payment intent
// for its total. When the server-side cart is empty (fresh process, client
// carried the cart locally), the client's lines are reconciled first: each
// product is re-priced from the catalog, never from client input.
func (o *Orchestrator) BeginCheckout(ctx context.Context, sessionID, customerEmail string, clientLines []ClientLine) (*payment.IntentRef, error) {
	snap := o.carts.Snapshot(sessionID)

	if snap.IsEmpty() && len(clientLines) > 0 {
		if err := o.reconcile(ctx, sessionID, clientLines); err != nil {
			return nil, err
		}
		snap = o.carts.Snapshot(sessionID)
	}

	if snap.IsEmpty() {
		return nil, ErrEmptyCart
	}

	return o.payments.CreateIntent(ctx, snap, customerEmail)
}

func (o *Orchestrator) reconcile(ctx context.Context, sessionID string, clientLines []ClientLine) error {
	for _, line := range clientLines {
		if line.ProductID == "" || line.Quantity < 1 {
			continue
		}

		product, err := o.catalog.GetByID(ctx, line.ProductID)
		if err != nil {
			return fmt.Errorf("look up product %s: %w", line.ProductID, err)
		}
		if product == nil {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, line.ProductID)
		}

		if _, err := o.carts.AddLine(sessionID, domain.CartLine{
			ProductID: product.ID,
			Title:     product.Title,
			UnitPrice: product.Price,
			ImageURL:  product.ImageURL,
			Quantity:  line.Quantity,
		}); err != nil {
			return fmt.Errorf("reconcile line %s: %w", line.ProductID, err)
		}
	}
	return nil
}

// CompleteCheckout confirms the payment against the gateway and records
// the transaction. Only after recording succeeds is the session's cart
// cleared; any earlier failure leaves the cart intact so the shopper can
// retry. Event publishing and the confirmation email are best-effort.
func (o *Orchestrator) CompleteCheckout(ctx context.Context, sessionID, paymentIntentID, customerEmail string, shipping *domain.Address) (*domain.Transaction, error) {
	tx, err := o.payments.ConfirmAndRecord(ctx, paymentIntentID, customerEmail, shipping)
	if err != nil {
		return nil, err
	}

	if sessionID != "" {
		o.carts.Clear(sessionID)
	}

	if o.producer != nil {
		event := domain.TransactionRecordedEvent{
			Transaction: *tx,
			Timestamp:   time.Now().UTC(),
		}
		if err := o.producer.Publish(ctx, tx.ID, event); err != nil {
			o.logger.Error("failed to publish transaction recorded event", "error", err, "transaction_id", tx.ID)
		}
	}

	if o.notifier != nil {
		if err := o.notifier.SendConfirmation(ctx, tx.CustomerEmail, tx); err != nil {
			o.logger.Warn("confirmation email failed, sale is still recorded",
				"error", err,
				"transaction_id", tx.ID,
				"customer_email", tx.CustomerEmail,
			)
		}
	}

	return tx, nil
}
