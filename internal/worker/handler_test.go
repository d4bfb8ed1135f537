package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gfontenele/quickshop/internal/domain"
)

func testEvent() domain.TransactionRecordedEvent {
	return domain.TransactionRecordedEvent{
		Transaction: domain.Transaction{
			ID:              "txn_1",
			PaymentIntentID: "pi_1",
			OrderID:         "ord_1",
			CustomerEmail:   "shopper@example.com",
			Amount:          domain.NewMoney(2550, "usd"),
			Status:          domain.TransactionStatusCompleted,
			CreatedAt:       time.Now().UTC(),
		},
		Timestamp: time.Now().UTC(),
	}
}

func TestHandleDispatchesEmail(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send-confirmation" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewConfirmationHandler(server.URL, server.Client(), logger)

	payload, err := json.Marshal(testEvent())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if err := handler.Handle(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["customerEmail"] != "shopper@example.com" {
		t.Fatalf("unexpected recipient: %v", got["customerEmail"])
	}
	tx, _ := got["transaction"].(map[string]any)
	if tx == nil || tx["id"] != "txn_1" {
		t.Fatalf("unexpected transaction payload: %v", got["transaction"])
	}
}

func TestHandleMalformedEvent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewConfirmationHandler("http://unused", http.DefaultClient, logger)

	if err := handler.Handle(context.Background(), []byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestHandleEmailServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewConfirmationHandler(server.URL, server.Client(), logger)

	payload, err := json.Marshal(testEvent())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	// a failed dispatch must surface so the message is redelivered
	if err := handler.Handle(context.Background(), payload); err == nil {
		t.Fatal("expected error when the email service is down")
	}
}
