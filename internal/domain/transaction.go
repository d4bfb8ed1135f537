package domain

import "time"

type TransactionStatus string

const TransactionStatusCompleted TransactionStatus = "completed"

type Address struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Transaction is the durable, immutable record of a completed sale.
// It is created exactly once, at the instant the gateway reports the
// payment intent succeeded, and owns its own copy of the cart lines so
// clearing the live cart afterwards cannot touch it.
type Transaction struct {
	ID              string            `json:"id"`
	PaymentIntentID string            `json:"paymentIntentId"`
	OrderID         string            `json:"orderId"`
	CustomerEmail   string            `json:"customerEmail"`
	Amount          Money             `json:"amount"`
	Status          TransactionStatus `json:"status"`
	Lines           []CartLine        `json:"cartItems"`
	ShippingAddress *Address          `json:"shippingAddress,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}
