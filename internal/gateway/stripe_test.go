package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateIntent(t *testing.T) {
	var gotAuth, gotContentType string
	var gotForm map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "pi_123",
			"client_secret": "pi_123_secret",
			"amount": 2550,
			"currency": "usd",
			"status": "requires_confirmation",
			"metadata": {"orderId": "ord_1"}
		}`)
	}))
	defer server.Close()

	client := NewStripeClient(server.URL, "sk_test_key", server.Client())

	intent, err := client.CreateIntent(context.Background(), CreateIntentParams{
		Amount:   2550,
		Currency: "usd",
		Metadata: map[string]string{"orderId": "ord_1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer sk_test_key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type: %q", gotContentType)
	}
	if got := gotForm["amount"]; len(got) != 1 || got[0] != "2550" {
		t.Fatalf("unexpected amount field: %v", got)
	}
	if got := gotForm["automatic_payment_methods[enabled]"]; len(got) != 1 || got[0] != "true" {
		t.Fatalf("expected automatic payment methods enabled, got %v", got)
	}
	if got := gotForm["metadata[orderId]"]; len(got) != 1 || got[0] != "ord_1" {
		t.Fatalf("unexpected metadata field: %v", got)
	}

	if intent.ID != "pi_123" {
		t.Fatalf("unexpected intent id: %s", intent.ID)
	}
	if intent.ClientSecret != "pi_123_secret" {
		t.Fatalf("unexpected client secret: %s", intent.ClientSecret)
	}
	if intent.Status != StatusRequiresConfirmation {
		t.Fatalf("unexpected status: %s", intent.Status)
	}
	if intent.Metadata["orderId"] != "ord_1" {
		t.Fatalf("unexpected metadata: %v", intent.Metadata)
	}
}

func TestGetIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/payment_intents/pi_123" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_123","amount":2550,"currency":"usd","status":"succeeded","metadata":{}}`)
	}))
	defer server.Close()

	client := NewStripeClient(server.URL, "sk_test_key", server.Client())

	intent, err := client.GetIntent(context.Background(), "pi_123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.Status != StatusSucceeded {
		t.Fatalf("unexpected status: %s", intent.Status)
	}
	if intent.Amount != 2550 {
		t.Fatalf("unexpected amount: %d", intent.Amount)
	}
}

func TestGatewayErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = io.WriteString(w, `{"error":{"message":"Your card was declined."}}`)
	}))
	defer server.Close()

	client := NewStripeClient(server.URL, "sk_test_key", server.Client())

	_, err := client.CreateIntent(context.Background(), CreateIntentParams{Amount: 100, Currency: "usd"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "gateway returned status 402: Your card was declined." {
		t.Fatalf("unexpected error message: %q", got)
	}
}
