// Package ledger is the append-only record of completed sales. A lost
// append means a paid-but-unrecorded order, so persistence failures always
// propagate to the caller instead of being swallowed.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/gfontenele/quickshop/internal/domain"
)

// ErrDuplicateIntent reports that a transaction already exists for the
// payment intent. It is the idempotency backstop for concurrent confirms.
var ErrDuplicateIntent = errors.New("transaction already recorded for payment intent")

// Log stores transactions keyed by id with a secondary lookup by payment
// intent id. Find methods return (nil, nil) for well-formed but absent
// keys. Appends from concurrent requests must serialize so no entry is
// lost and no read observes a half-written log.
type Log interface {
	Append(ctx context.Context, tx *domain.Transaction) error
	FindByID(ctx context.Context, id string) (*domain.Transaction, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Transaction, error)
	ListSince(ctx context.Context, since time.Time) ([]domain.Transaction, error)
}
