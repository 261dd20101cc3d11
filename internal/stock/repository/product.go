package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/freshstock/freshstock-backend/pkg/database"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/google/uuid"
)

// Product represents a perishable good tracked in batches
type Product struct {
	ID        string    `db:"id" json:"id"`
	HotelID   string    `db:"hotel_id" json:"hotel_id"`
	Name      string    `db:"name" json:"name"`
	Category  *string   `db:"category" json:"category,omitempty"`
	Unit      string    `db:"unit" json:"unit"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	query := `
		INSERT INTO products (id, hotel_id, name, category, unit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	if err := r.db.QueryRowxContext(ctx, query,
		product.ID, product.HotelID, product.Name, product.Category,
		product.Unit, product.IsActive,
	).Scan(&product.CreatedAt, &product.UpdatedAt); err != nil {
		return database.WrapError(err)
	}
	return nil
}

// GetByID gets a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	var product Product
	query := `SELECT * FROM products WHERE id = $1`
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		return nil, err
	}
	return &product, nil
}

// ListByHotel lists active products for a hotel
func (r *ProductRepository) ListByHotel(ctx context.Context, hotelID string) ([]*Product, error) {
	var products []*Product
	query := `
		SELECT * FROM products
		WHERE hotel_id = $1 AND is_active = true
		ORDER BY name
	`
	if err := r.db.SelectContext(ctx, &products, query, hotelID); err != nil {
		return nil, err
	}
	return products, nil
}

// Update updates a product
func (r *ProductRepository) Update(ctx context.Context, product *Product) error {
	query := `
		UPDATE products SET name = $2, category = $3, unit = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		product.ID, product.Name, product.Category, product.Unit, product.IsActive,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	return nil
}
