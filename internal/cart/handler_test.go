package cart

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gfontenele/quickshop/internal/domain"
)

type fakeCatalog struct {
	products map[string]*domain.Product
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*domain.Product, error) {
	return f.products[id], nil
}

func newTestHandler() (*Handler, *Store) {
	store := NewStore("usd")
	catalog := &fakeCatalog{products: map[string]*domain.Product{
		"p1": {ID: "p1", Title: "Headphones", Price: domain.NewMoney(7999, "usd"), ImageURL: "/p1.jpg"},
		"p2": {ID: "p2", Title: "Stand", Price: domain.NewMoney(4999, "usd")},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(store, catalog, logger), store
}

func serve(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart/{sessionId}", h.HandleGet)
	mux.HandleFunc("POST /cart/{sessionId}/add", h.HandleAdd)
	mux.HandleFunc("PUT /cart/{sessionId}/update/{productId}", h.HandleUpdate)
	mux.HandleFunc("DELETE /cart/{sessionId}/remove/{productId}", h.HandleRemove)
	mux.HandleFunc("DELETE /cart/{sessionId}/clear", h.HandleClear)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return rec, decoded
}

func TestHandleAdd(t *testing.T) {
	handler, _ := newTestHandler()
	mux := serve(handler)

	rec, resp := doRequest(t, mux, http.MethodPost, "/cart/s1/add", `{"productId":"p1","quantity":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp["success"] != true {
		t.Fatalf("expected success, got %v", resp)
	}
	if resp["itemCount"] != float64(2) {
		t.Fatalf("expected itemCount 2, got %v", resp["itemCount"])
	}

	lines := resp["data"].([]any)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	first := lines[0].(map[string]any)
	if first["title"] != "Headphones" {
		t.Fatalf("expected catalog title, got %v", first["title"])
	}
}

func TestHandleAddDefaultsQuantity(t *testing.T) {
	handler, _ := newTestHandler()
	mux := serve(handler)

	_, resp := doRequest(t, mux, http.MethodPost, "/cart/s1/add", `{"productId":"p1"}`)
	if resp["itemCount"] != float64(1) {
		t.Fatalf("expected quantity to default to 1, got %v", resp["itemCount"])
	}
}

func TestHandleAddValidation(t *testing.T) {
	handler, _ := newTestHandler()
	mux := serve(handler)

	rec, resp := doRequest(t, mux, http.MethodPost, "/cart/s1/add", `{"quantity":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp["error"] != "Product ID is required" {
		t.Fatalf("unexpected error: %v", resp["error"])
	}

	rec, resp = doRequest(t, mux, http.MethodPost, "/cart/s1/add", `{"productId":"nope"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp["error"] != "Product not found" {
		t.Fatalf("unexpected error: %v", resp["error"])
	}
}

func TestHandleGetUnknownSession(t *testing.T) {
	handler, _ := newTestHandler()
	mux := serve(handler)

	rec, resp := doRequest(t, mux, http.MethodGet, "/cart/fresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(resp["data"].([]any)) != 0 {
		t.Fatalf("expected empty cart, got %v", resp["data"])
	}
	if resp["itemCount"] != float64(0) {
		t.Fatalf("expected itemCount 0, got %v", resp["itemCount"])
	}
}

func TestHandleUpdate(t *testing.T) {
	handler, _ := newTestHandler()
	mux := serve(handler)

	doRequest(t, mux, http.MethodPost, "/cart/s1/add", `{"productId":"p1","quantity":1}`)

	rec, resp := doRequest(t, mux, http.MethodPut, "/cart/s1/update/p1", `{"quantity":4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp["itemCount"] != float64(4) {
		t.Fatalf("expected itemCount 4, got %v", resp["itemCount"])
	}

	rec, resp = doRequest(t, mux, http.MethodPut, "/cart/s1/update/missing", `{"quantity":1}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp["error"] != "Item not found in cart" {
		t.Fatalf("unexpected error: %v", resp["error"])
	}

	rec, resp = doRequest(t, mux, http.MethodPut, "/cart/nope/update/p1", `{"quantity":1}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp["error"] != "Cart not found" {
		t.Fatalf("unexpected error: %v", resp["error"])
	}
}

func TestHandleRemoveAndClear(t *testing.T) {
	handler, store := newTestHandler()
	mux := serve(handler)

	doRequest(t, mux, http.MethodPost, "/cart/s1/add", `{"productId":"p1","quantity":1}`)
	doRequest(t, mux, http.MethodPost, "/cart/s1/add", `{"productId":"p2","quantity":1}`)

	rec, resp := doRequest(t, mux, http.MethodDelete, "/cart/s1/remove/p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp["itemCount"] != float64(1) {
		t.Fatalf("expected 1 item after remove, got %v", resp["itemCount"])
	}

	rec, _ = doRequest(t, mux, http.MethodDelete, "/cart/s1/clear", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !store.Snapshot("s1").IsEmpty() {
		t.Fatal("expected cart to be empty after clear")
	}
}
