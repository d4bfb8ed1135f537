package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gfontenele/quickshop/internal/catalog"
	"github.com/gfontenele/quickshop/internal/domain"
)

type Handler struct {
	store   *Store
	catalog catalog.Lookup
	logger  *slog.Logger
}

func NewHandler(store *Store, lookup catalog.Lookup, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		catalog: lookup,
		logger:  logger,
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	snap := h.store.Snapshot(sessionID)
	h.writeCart(w, http.StatusOK, snap)
}

type addRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		h.writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	product, err := h.catalog.GetByID(r.Context(), req.ProductID)
	if err != nil {
		h.logger.Error("failed to look up product", "error", err, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "Failed to add item to cart")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	snap, err := h.store.AddLine(sessionID, domain.CartLine{
		ProductID: product.ID,
		Title:     product.Title,
		UnitPrice: product.Price,
		ImageURL:  product.ImageURL,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.logger.Error("failed to add line", "error", err, "session_id", sessionID, "product_id", req.ProductID)
		h.writeError(w, http.StatusBadRequest, "Failed to add item to cart")
		return
	}

	h.logger.Info("line added", "session_id", sessionID, "product_id", product.ID, "quantity", req.Quantity)
	h.writeCart(w, http.StatusOK, snap)
}

type updateRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	productID := r.PathValue("productId")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.store.UpdateQuantity(sessionID, productID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			h.writeError(w, http.StatusNotFound, "Cart not found")
		case errors.Is(err, ErrLineNotFound):
			h.writeError(w, http.StatusNotFound, "Item not found in cart")
		default:
			h.logger.Error("failed to update quantity", "error", err, "session_id", sessionID)
			h.writeError(w, http.StatusInternalServerError, "Failed to update cart")
		}
		return
	}

	h.logger.Info("quantity updated", "session_id", sessionID, "product_id", productID, "quantity", req.Quantity)
	h.writeCart(w, http.StatusOK, snap)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	productID := r.PathValue("productId")

	snap, err := h.store.RemoveLine(sessionID, productID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "Cart not found")
			return
		}
		h.logger.Error("failed to remove line", "error", err, "session_id", sessionID)
		h.writeError(w, http.StatusInternalServerError, "Failed to remove item from cart")
		return
	}

	h.logger.Info("line removed", "session_id", sessionID, "product_id", productID)
	h.writeCart(w, http.StatusOK, snap)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	snap := h.store.Clear(sessionID)
	h.logger.Info("cart cleared", "session_id", sessionID)
	h.writeCart(w, http.StatusOK, snap)
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, snap domain.CartSnapshot) {
	h.writeJSON(w, status, map[string]any{
		"success":   true,
		"data":      snap.Lines,
		"total":     snap.Total,
		"itemCount": snap.ItemCount,
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
