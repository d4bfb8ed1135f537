package email

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/gfontenele/quickshop/internal/domain"
)

type Handler struct {
	client   *sendgrid.Client
	fromAddr string
	logger   *slog.Logger
}

// NewHandler builds the delivery handler. A nil client means no provider
// is configured: delivery is simulated and logged, which is what local
// development and the test environment use.
func NewHandler(client *sendgrid.Client, fromAddr string, logger *slog.Logger) *Handler {
	return &Handler{
		client:   client,
		fromAddr: fromAddr,
		logger:   logger,
	}
}

type sendConfirmationRequest struct {
	CustomerEmail string             `json:"customerEmail"`
	Transaction   domain.Transaction `json:"transaction"`
}

func (h *Handler) HandleSendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req sendConfirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CustomerEmail == "" || req.Transaction.ID == "" {
		h.writeError(w, http.StatusBadRequest, "Customer email and transaction details are required")
		return
	}

	subject, body := RenderConfirmation(&req.Transaction)

	if h.client == nil {
		// Simulated provider latency.
		time.Sleep(time.Duration(50+rand.Intn(151)) * time.Millisecond)
		h.logger.Info("confirmation email sent (simulated)",
			"to", req.CustomerEmail,
			"subject", subject,
			"transaction_id", req.Transaction.ID,
		)
		h.writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Confirmation email sent successfully",
		})
		return
	}

	message := mail.NewSingleEmail(
		mail.NewEmail("QuickShop", h.fromAddr),
		subject,
		mail.NewEmail("", req.CustomerEmail),
		body,
		"",
	)

	resp, err := h.client.Send(message)
	if err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "to", req.CustomerEmail)
		h.writeError(w, http.StatusInternalServerError, "Failed to send confirmation email")
		return
	}
	if resp.StatusCode >= 400 {
		h.logger.Error("email provider rejected message", "status", resp.StatusCode, "to", req.CustomerEmail)
		h.writeError(w, http.StatusInternalServerError, "Failed to send confirmation email")
		return
	}

	h.logger.Info("confirmation email sent", "to", req.CustomerEmail, "transaction_id", req.Transaction.ID)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Confirmation email sent successfully",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{"success": false, "error": message})
}
