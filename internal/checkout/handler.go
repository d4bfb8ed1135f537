package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gfontenele/quickshop/internal/domain"
	"github.com/gfontenele/quickshop/internal/ledger"
	"github.com/gfontenele/quickshop/internal/payment"
)

type Handler struct {
	flow           *Orchestrator
	ledger         ledger.Log
	publishableKey string
	logger         *slog.Logger
}

func NewHandler(flow *Orchestrator, log ledger.Log, publishableKey string, logger *slog.Logger) *Handler {
	return &Handler{
		flow:           flow,
		ledger:         log,
		publishableKey: publishableKey,
		logger:         logger,
	}
}

type createIntentRequest struct {
	SessionID     string           `json:"sessionId"`
	Amount        *decimal.Decimal `json:"amount"`
	Currency      string           `json:"currency"`
	CartItems     []ClientLine     `json:"cartItems"`
	CustomerEmail string           `json:"customerEmail"`
}

func (h *Handler) HandleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The client-submitted amount is advisory only; the charge amount is
	// always derived server-side from the cart. It is still validated so
	// an obviously broken client fails fast.
	if req.Amount != nil && !req.Amount.IsPositive() {
		h.writeError(w, http.StatusBadRequest, "Valid amount is required")
		return
	}

	ref, err := h.flow.BeginCheckout(r.Context(), req.SessionID, req.CustomerEmail, req.CartItems)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			h.writeError(w, http.StatusBadRequest, "Cart is empty")
		case errors.Is(err, payment.ErrInvalidAmount):
			h.writeError(w, http.StatusBadRequest, "Valid amount is required")
		case errors.Is(err, ErrUnknownProduct):
			h.writeError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, payment.ErrGateway):
			h.logger.Error("gateway rejected intent creation", "error", err, "session_id", req.SessionID)
			h.writeError(w, http.StatusBadGateway, "Failed to create payment intent")
		default:
			h.logger.Error("failed to begin checkout", "error", err, "session_id", req.SessionID)
			h.writeError(w, http.StatusInternalServerError, "Failed to create payment intent")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"clientSecret":    ref.ClientSecret,
		"paymentIntentId": ref.PaymentIntentID,
		"orderId":         ref.OrderID,
	})
}

type confirmRequest struct {
	PaymentIntentID string          `json:"paymentIntentId"`
	SessionID       string          `json:"sessionId"`
	CustomerEmail   string          `json:"customerEmail"`
	CartItems       []ClientLine    `json:"cartItems"` // accepted for wire compat, snapshot comes from intent metadata
	ShippingAddress *domain.Address `json:"shippingAddress"`
}

func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PaymentIntentID == "" {
		h.writeError(w, http.StatusBadRequest, "Payment intent ID is required")
		return
	}

	tx, err := h.flow.CompleteCheckout(r.Context(), req.SessionID, req.PaymentIntentID, req.CustomerEmail, req.ShippingAddress)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrPaymentNotCompleted):
			h.writeError(w, http.StatusBadRequest, "Payment not completed")
		case errors.Is(err, payment.ErrGateway):
			h.logger.Error("gateway unavailable during confirmation", "error", err, "payment_intent_id", req.PaymentIntentID)
			h.writeError(w, http.StatusBadGateway, "Failed to confirm payment")
		default:
			h.logger.Error("failed to confirm payment", "error", err, "payment_intent_id", req.PaymentIntentID)
			h.writeError(w, http.StatusInternalServerError, "Failed to confirm payment")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"transaction": tx,
		"message":     "Payment confirmed successfully",
	})
}

func (h *Handler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("transactionId")

	tx, err := h.ledger.FindByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to fetch transaction", "error", err, "transaction_id", id)
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch transaction")
		return
	}

	if tx == nil {
		h.writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    tx,
	})
}

// HandleListTransactions is the operator view for reconciling gateway
// activity against the ledger (e.g. spotting orphaned intents).
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = parsed
	}

	transactions, err := h.ledger.ListSince(r.Context(), since)
	if err != nil {
		h.logger.Error("failed to list transactions", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    transactions,
		"count":   len(transactions),
	})
}

func (h *Handler) HandleConfig(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"publishableKey": h.publishableKey,
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
