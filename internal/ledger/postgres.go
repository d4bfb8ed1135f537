package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/gfontenele/quickshop/internal/domain"
)

const uniqueViolation = "23505"

// PostgresLog persists transactions in Postgres. Append inserts the record
// and its line snapshot in one database transaction; the unique constraint
// on payment_intent_id serializes concurrent confirms for the same intent.
type PostgresLog struct {
	db *sql.DB
}

func NewPostgresLog(db *sql.DB) *PostgresLog {
	return &PostgresLog{db: db}
}

func (l *PostgresLog) Append(ctx context.Context, tx *domain.Transaction) error {
	dbTx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	var shipping []byte
	if tx.ShippingAddress != nil {
		shipping, err = json.Marshal(tx.ShippingAddress)
		if err != nil {
			return fmt.Errorf("marshal shipping address: %w", err)
		}
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO transactions (id, payment_intent_id, order_id, customer_email, amount_minor, currency, status, shipping_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, tx.ID, tx.PaymentIntentID, tx.OrderID, tx.CustomerEmail, tx.Amount.MinorUnits, tx.Amount.Currency, tx.Status, shipping, tx.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateIntent
		}
		return fmt.Errorf("insert transaction: %w", err)
	}

	for i, line := range tx.Lines {
		_, err = dbTx.ExecContext(ctx, `
			INSERT INTO transaction_lines (transaction_id, position, product_id, title, unit_price_minor, currency, image_url, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, tx.ID, i, line.ProductID, line.Title, line.UnitPrice.MinorUnits, line.UnitPrice.Currency, line.ImageURL, line.Quantity)
		if err != nil {
			return fmt.Errorf("insert transaction line: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}

	return nil
}

func (l *PostgresLog) FindByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return l.findOne(ctx, `WHERE id = $1`, id)
}

func (l *PostgresLog) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Transaction, error) {
	return l.findOne(ctx, `WHERE payment_intent_id = $1`, paymentIntentID)
}

func (l *PostgresLog) findOne(ctx context.Context, where string, arg any) (*domain.Transaction, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, payment_intent_id, order_id, customer_email, amount_minor, currency, status, shipping_address, created_at
		FROM transactions
	`+where, arg)

	tx, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	lines, err := l.loadLines(ctx, []string{tx.ID})
	if err != nil {
		return nil, err
	}
	tx.Lines = lines[tx.ID]

	return tx, nil
}

func (l *PostgresLog) ListSince(ctx context.Context, since time.Time) ([]domain.Transaction, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, payment_intent_id, order_id, customer_email, amount_minor, currency, status, shipping_address, created_at
		FROM transactions
		WHERE created_at >= $1
		ORDER BY created_at
	`, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	txByID := make(map[string]*domain.Transaction)
	var ids []string

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		tx.Lines = []domain.CartLine{}
		txByID[tx.ID] = tx
		ids = append(ids, tx.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []domain.Transaction{}, nil
	}

	lines, err := l.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, txLines := range lines {
		txByID[id].Lines = txLines
	}

	transactions := make([]domain.Transaction, 0, len(ids))
	for _, id := range ids {
		transactions = append(transactions, *txByID[id])
	}

	return transactions, nil
}

func (l *PostgresLog) loadLines(ctx context.Context, transactionIDs []string) (map[string][]domain.CartLine, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT transaction_id, product_id, title, unit_price_minor, currency, image_url, quantity
		FROM transaction_lines
		WHERE transaction_id = ANY($1)
		ORDER BY transaction_id, position
	`, pq.Array(transactionIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	lines := make(map[string][]domain.CartLine)
	for rows.Next() {
		var (
			txID       string
			line       domain.CartLine
			priceMinor int64
			currency   string
		)
		if err := rows.Scan(&txID, &line.ProductID, &line.Title, &priceMinor, &currency, &line.ImageURL, &line.Quantity); err != nil {
			return nil, err
		}
		line.UnitPrice = domain.NewMoney(priceMinor, currency)
		lines[txID] = append(lines[txID], line)
	}

	return lines, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		tx          domain.Transaction
		amountMinor int64
		currency    string
		shipping    []byte
	)
	err := row.Scan(&tx.ID, &tx.PaymentIntentID, &tx.OrderID, &tx.CustomerEmail, &amountMinor, &currency, &tx.Status, &shipping, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}

	tx.Amount = domain.NewMoney(amountMinor, currency)

	if len(shipping) > 0 {
		var addr domain.Address
		if err := json.Unmarshal(shipping, &addr); err != nil {
			return nil, fmt.Errorf("unmarshal shipping address: %w", err)
		}
		tx.ShippingAddress = &addr
	}

	return &tx, nil
}
