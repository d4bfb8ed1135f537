package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gfontenele/quickshop/internal/domain"
)

// FileLog keeps the transaction log as a single JSON array on disk. Every
// append is read-entire-then-write-entire under one lock, with the write
// going through a temp file and rename so readers never see a torn file.
// It backs broker-less development runs and unit tests; Postgres is the
// production store.
type FileLog struct {
	mu   sync.Mutex
	path string
}

func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

func (l *FileLog) Append(_ context.Context, tx *domain.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	transactions, err := l.readAll()
	if err != nil {
		return err
	}

	for i := range transactions {
		if transactions[i].PaymentIntentID == tx.PaymentIntentID {
			return ErrDuplicateIntent
		}
	}

	transactions = append(transactions, *tx)
	return l.writeAll(transactions)
}

func (l *FileLog) FindByID(_ context.Context, id string) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	transactions, err := l.readAll()
	if err != nil {
		return nil, err
	}

	for i := range transactions {
		if transactions[i].ID == id {
			return &transactions[i], nil
		}
	}
	return nil, nil
}

func (l *FileLog) FindByPaymentIntentID(_ context.Context, paymentIntentID string) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	transactions, err := l.readAll()
	if err != nil {
		return nil, err
	}

	for i := range transactions {
		if transactions[i].PaymentIntentID == paymentIntentID {
			return &transactions[i], nil
		}
	}
	return nil, nil
}

func (l *FileLog) ListSince(_ context.Context, since time.Time) ([]domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	transactions, err := l.readAll()
	if err != nil {
		return nil, err
	}

	result := make([]domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if !tx.CreatedAt.Before(since) {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (l *FileLog) readAll() ([]domain.Transaction, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read transaction log: %w", err)
	}

	var transactions []domain.Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("transaction log corrupt: %w", err)
	}
	return transactions, nil
}

func (l *FileLog) writeAll(transactions []domain.Transaction) error {
	data, err := json.MarshalIndent(transactions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transaction log: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write transaction log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace transaction log: %w", err)
	}
	return nil
}
