package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrCurrencyMismatch = errors.New("currency mismatch")

var minorUnitsPerWhole = decimal.NewFromInt(100)

// Money is a fixed-point currency amount held in minor units (cents).
// All arithmetic stays in int64 so totals never accumulate float drift.
type Money struct {
	MinorUnits int64
	Currency   string
}

func NewMoney(minorUnits int64, currency string) Money {
	return Money{MinorUnits: minorUnits, Currency: currency}
}

// MoneyFromDecimal converts a decimal whole-unit amount (e.g. 25.50) into
// minor units, rounding half away from zero.
func MoneyFromDecimal(amount decimal.Decimal, currency string) Money {
	return Money{
		MinorUnits: amount.Mul(minorUnitsPerWhole).Round(0).IntPart(),
		Currency:   currency,
	}
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{MinorUnits: m.MinorUnits + other.MinorUnits, Currency: m.Currency}, nil
}

// MulQty scales the amount by a line quantity.
func (m Money) MulQty(quantity int) Money {
	return Money{MinorUnits: m.MinorUnits * int64(quantity), Currency: m.Currency}
}

func (m Money) IsPositive() bool {
	return m.MinorUnits > 0
}

func (m Money) IsZero() bool {
	return m.MinorUnits == 0
}

func (m Money) Equal(other Money) bool {
	return m.MinorUnits == other.MinorUnits && m.Currency == other.Currency
}

// Decimal returns the whole-unit representation (2550 cents -> 25.50).
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.MinorUnits).Div(minorUnitsPerWhole)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2) + " " + m.Currency
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// MarshalJSON serializes as a decimal amount plus currency code, so clients
// and the transaction log see "25.50" rather than a raw cent count.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.Decimal(), Currency: m.Currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MoneyFromDecimal(raw.Amount, raw.Currency)
	return nil
}
