package domain

import "time"

// TransactionRecordedEvent fans out a freshly recorded sale to downstream
// consumers (confirmation emails, reporting). The transaction inside is the
// already-immutable ledger record.
type TransactionRecordedEvent struct {
	Transaction Transaction `json:"transaction"`
	Timestamp   time.Time   `json:"timestamp"`
}
