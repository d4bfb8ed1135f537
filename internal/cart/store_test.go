package cart

import (
	"errors"
	"sync"
	"testing"

	"github.com/gfontenele/quickshop/internal/domain"
)

func line(productID string, priceMinor int64, quantity int) domain.CartLine {
	return domain.CartLine{
		ProductID: productID,
		Title:     "Product " + productID,
		UnitPrice: domain.NewMoney(priceMinor, "usd"),
		Quantity:  quantity,
	}
}

func TestAddLineMergesQuantities(t *testing.T) {
	store := NewStore("usd")

	if _, err := store.AddLine("s1", line("p1", 1000, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, err := store.AddLine("s1", line("p1", 1000, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(snap.Lines) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(snap.Lines))
	}
	if snap.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", snap.Lines[0].Quantity)
	}
	if snap.ItemCount != 3 {
		t.Fatalf("expected item count 3, got %d", snap.ItemCount)
	}
	if snap.Total.MinorUnits != 3000 {
		t.Fatalf("expected total 3000, got %d", snap.Total.MinorUnits)
	}
}

func TestAddLinePreservesInsertionOrder(t *testing.T) {
	store := NewStore("usd")

	store.AddLine("s1", line("p1", 1000, 1))
	store.AddLine("s1", line("p2", 500, 1))
	store.AddLine("s1", line("p1", 1000, 1))

	snap := store.Snapshot("s1")
	if len(snap.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(snap.Lines))
	}
	if snap.Lines[0].ProductID != "p1" || snap.Lines[1].ProductID != "p2" {
		t.Fatalf("unexpected order: %s, %s", snap.Lines[0].ProductID, snap.Lines[1].ProductID)
	}
}

func TestAddLineRejectsInvalidQuantity(t *testing.T) {
	store := NewStore("usd")

	if _, err := store.AddLine("s1", line("p1", 1000, 0)); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := store.AddLine("s1", line("p1", 1000, -2)); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestAddLineRejectsMixedCurrencies(t *testing.T) {
	store := NewStore("usd")

	store.AddLine("s1", line("p1", 1000, 1))

	eur := line("p2", 500, 1)
	eur.UnitPrice = domain.NewMoney(500, "eur")
	if _, err := store.AddLine("s1", eur); !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}

	snap := store.Snapshot("s1")
	if len(snap.Lines) != 1 {
		t.Fatalf("expected cart unchanged, got %d lines", len(snap.Lines))
	}
}

func TestUpdateQuantity(t *testing.T) {
	store := NewStore("usd")
	store.AddLine("s1", line("p1", 1000, 1))

	snap, err := store.UpdateQuantity("s1", "p1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", snap.Lines[0].Quantity)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	for _, quantity := range []int{0, -1} {
		store := NewStore("usd")
		store.AddLine("s1", line("p1", 1000, 2))

		snap, err := store.UpdateQuantity("s1", "p1", quantity)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snap.Lines) != 0 {
			t.Fatalf("expected line removed for quantity %d, got %d lines", quantity, len(snap.Lines))
		}
	}
}

func TestUpdateQuantityUnknownTargets(t *testing.T) {
	store := NewStore("usd")

	if _, err := store.UpdateQuantity("missing", "p1", 1); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	store.AddLine("s1", line("p1", 1000, 1))
	if _, err := store.UpdateQuantity("s1", "missing", 1); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}

	snap := store.Snapshot("s1")
	if len(snap.Lines) != 1 || snap.Lines[0].Quantity != 1 {
		t.Fatal("expected cart unchanged after failed update")
	}
}

func TestRemoveLine(t *testing.T) {
	store := NewStore("usd")
	store.AddLine("s1", line("p1", 1000, 1))
	store.AddLine("s1", line("p2", 500, 1))

	snap, err := store.RemoveLine("s1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Lines) != 1 || snap.Lines[0].ProductID != "p2" {
		t.Fatalf("unexpected lines after remove: %+v", snap.Lines)
	}

	// removing an absent line is a no-op
	snap, err = store.RemoveLine("s1", "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(snap.Lines))
	}

	if _, err := store.RemoveLine("missing", "p1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestClear(t *testing.T) {
	store := NewStore("usd")
	store.AddLine("s1", line("p1", 1000, 3))

	snap := store.Clear("s1")
	if !snap.IsEmpty() {
		t.Fatal("expected empty snapshot after clear")
	}
	if snap.Total.MinorUnits != 0 || snap.ItemCount != 0 {
		t.Fatalf("expected zero totals, got %d / %d", snap.Total.MinorUnits, snap.ItemCount)
	}

	// clearing an unknown session is not an error
	snap = store.Clear("missing")
	if !snap.IsEmpty() {
		t.Fatal("expected empty snapshot for unknown session")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	store := NewStore("usd")
	store.AddLine("s1", line("p1", 1000, 1))

	snap := store.Snapshot("s1")
	snap.Lines[0].Quantity = 99

	after := store.Snapshot("s1")
	if after.Lines[0].Quantity != 1 {
		t.Fatalf("snapshot mutation leaked into store: quantity %d", after.Lines[0].Quantity)
	}
}

func TestSnapshotTotals(t *testing.T) {
	store := NewStore("usd")
	store.AddLine("s1", line("p1", 1000, 2))
	store.AddLine("s1", line("p2", 550, 1))

	snap := store.Snapshot("s1")
	if snap.Total.MinorUnits != 2550 {
		t.Fatalf("expected total 2550, got %d", snap.Total.MinorUnits)
	}
	if snap.ItemCount != 3 {
		t.Fatalf("expected item count 3, got %d", snap.ItemCount)
	}
	if snap.CapturedAt.IsZero() {
		t.Fatal("expected CapturedAt to be set")
	}
}

func TestConcurrentAddsSameSession(t *testing.T) {
	store := NewStore("usd")

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			store.AddLine("s1", line("p1", 1000, 1))
		}()
	}
	wg.Wait()

	snap := store.Snapshot("s1")
	if len(snap.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(snap.Lines))
	}
	if snap.Lines[0].Quantity != workers {
		t.Fatalf("expected quantity %d, got %d", workers, snap.Lines[0].Quantity)
	}
	if snap.Total.MinorUnits != int64(workers)*1000 {
		t.Fatalf("expected total %d, got %d", workers*1000, snap.Total.MinorUnits)
	}
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	store := NewStore("usd")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.AddLine("a", line("p1", 100, 1))
		}()
		go func() {
			defer wg.Done()
			store.AddLine("b", line("p2", 200, 1))
		}()
	}
	wg.Wait()

	if snap := store.Snapshot("a"); snap.ItemCount != 10 {
		t.Fatalf("session a: expected 10 items, got %d", snap.ItemCount)
	}
	if snap := store.Snapshot("b"); snap.ItemCount != 10 {
		t.Fatalf("session b: expected 10 items, got %d", snap.ItemCount)
	}
}
