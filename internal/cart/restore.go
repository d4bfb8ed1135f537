package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/gfontenele/quickshop/internal/domain"
)

// persistedLine mirrors the serialized cart line shape with every field
// optional, so a single malformed entry can be rejected without discarding
// the rest of the payload.
type persistedLine struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	UnitPrice *struct {
		Amount   *decimal.Decimal `json:"amount"`
		Currency string           `json:"currency"`
	} `json:"unitPrice"`
	ImageURL string `json:"imageUrl"`
	Quantity *int   `json:"quantity"`
}

func (p persistedLine) valid() bool {
	return p.ProductID != "" &&
		p.Title != "" &&
		p.UnitPrice != nil &&
		p.UnitPrice.Amount != nil &&
		p.Quantity != nil &&
		*p.Quantity >= 1
}

// Restore replays a previously serialized cart into the session. Lines
// missing a product id, title, numeric price, or positive quantity are
// dropped; totals are recomputed from the survivors rather than trusted
// from storage. An entirely corrupt payload yields an empty cart.
func (s *Store) Restore(sessionID string, data []byte) domain.CartSnapshot {
	s.Clear(sessionID)

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return s.Snapshot(sessionID)
	}

	for _, entry := range entries {
		var line persistedLine
		if err := json.Unmarshal(entry, &line); err != nil {
			continue
		}
		if !line.valid() {
			continue
		}

		currency := line.UnitPrice.Currency
		if currency == "" {
			currency = s.defaultCurrency
		}

		// Replayed through AddLine so merge semantics and currency
		// checks apply to restored lines too.
		_, _ = s.AddLine(sessionID, domain.CartLine{
			ProductID: line.ProductID,
			Title:     line.Title,
			UnitPrice: domain.MoneyFromDecimal(*line.UnitPrice.Amount, currency),
			ImageURL:  line.ImageURL,
			Quantity:  *line.Quantity,
		})
	}

	return s.Snapshot(sessionID)
}
