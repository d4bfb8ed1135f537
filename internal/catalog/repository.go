package catalog

import (
	"context"
	"database/sql"

	"github.com/gfontenele/quickshop/internal/domain"
)

// Lookup resolves product ids to authoritative details at the moment an
// item enters a cart. Client-supplied prices are never trusted.
type Lookup interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, price_minor, currency, image_url
		FROM products
		ORDER BY title
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, price_minor, currency, image_url
		FROM products
		WHERE id = $1
	`, id)

	product, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &product, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		product    domain.Product
		priceMinor int64
		currency   string
	)
	err := row.Scan(&product.ID, &product.Title, &product.Description, &priceMinor, &currency, &product.ImageURL)
	if err != nil {
		return domain.Product{}, err
	}
	product.Price = domain.NewMoney(priceMinor, currency)
	return product, nil
}
