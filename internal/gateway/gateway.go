package gateway

import "context"

// Intent statuses as reported by the gateway. The pipeline only ever
// branches on Succeeded; everything else means "not done yet" or "failed".
const (
	StatusRequiresConfirmation = "requires_confirmation"
	StatusSucceeded            = "succeeded"
	StatusFailed               = "failed"
)

// Intent is the gateway-side authorization-in-progress for a specific
// amount and currency. The gateway owns it; we hold only this reference.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
	Metadata     map[string]string
}

type CreateIntentParams struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// PaymentGateway creates and retrieves payment intents. Implementations
// must honor the context deadline; callers never hold in-memory locks
// across these calls.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}
