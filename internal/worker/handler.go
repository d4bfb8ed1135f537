package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gfontenele/quickshop/internal/domain"
)

// ConfirmationHandler turns transaction.recorded events into confirmation
// emails via the email service. Returning an error leaves the offset
// uncommitted so the event is redelivered.
type ConfirmationHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewConfirmationHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

func (h *ConfirmationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.TransactionRecordedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal transaction recorded event: %w", err)
	}

	tx := event.Transaction
	h.logger.Info("processing transaction recorded event",
		"transaction_id", tx.ID,
		"order_id", tx.OrderID,
		"customer_email", tx.CustomerEmail,
	)

	if err := h.sendConfirmation(ctx, &tx); err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "transaction_id", tx.ID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("confirmation email dispatched", "transaction_id", tx.ID)
	return nil
}

func (h *ConfirmationHandler) sendConfirmation(ctx context.Context, tx *domain.Transaction) error {
	body, err := json.Marshal(map[string]any{
		"customerEmail": tx.CustomerEmail,
		"transaction":   tx,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send-confirmation", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
