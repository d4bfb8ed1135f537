package domain

import "time"

// CartLine is one product's quantity within a cart. Quantity is always
// positive: a line that would drop to zero is removed, never stored.
type CartLine struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	UnitPrice Money  `json:"unitPrice"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (l CartLine) Subtotal() Money {
	return l.UnitPrice.MulQty(l.Quantity)
}

// CartSnapshot is an immutable point-in-time copy of a session's cart,
// frozen before payment begins. Total and ItemCount are always derived
// from Lines, never carried independently.
type CartSnapshot struct {
	SessionID  string     `json:"sessionId"`
	Lines      []CartLine `json:"lines"`
	Total      Money      `json:"total"`
	ItemCount  int        `json:"itemCount"`
	CapturedAt time.Time  `json:"capturedAt"`
}

func (s CartSnapshot) IsEmpty() bool {
	return s.ItemCount == 0
}
