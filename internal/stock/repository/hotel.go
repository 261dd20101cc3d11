package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/freshstock/freshstock-backend/pkg/database"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/google/uuid"
)

// Hotel represents one property tracked by the system
type Hotel struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HotelRepository handles hotel persistence
type HotelRepository struct {
	db *database.DB
}

// NewHotelRepository creates a new hotel repository
func NewHotelRepository(db *database.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

// Create creates a new hotel
func (r *HotelRepository) Create(ctx context.Context, hotel *Hotel) error {
	if hotel.ID == "" {
		hotel.ID = uuid.New().String()
	}

	query := `
		INSERT INTO hotels (id, name, is_active)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		hotel.ID, hotel.Name, hotel.IsActive,
	).Scan(&hotel.CreatedAt, &hotel.UpdatedAt)
}

// GetByID gets a hotel by ID
func (r *HotelRepository) GetByID(ctx context.Context, id string) (*Hotel, error) {
	var hotel Hotel
	query := `SELECT * FROM hotels WHERE id = $1`
	if err := r.db.GetContext(ctx, &hotel, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("hotel")
		}
		return nil, err
	}
	return &hotel, nil
}

// ListActive lists all active hotels
func (r *HotelRepository) ListActive(ctx context.Context) ([]*Hotel, error) {
	var hotels []*Hotel
	query := `SELECT * FROM hotels WHERE is_active = true ORDER BY name`
	if err := r.db.SelectContext(ctx, &hotels, query); err != nil {
		return nil, err
	}
	return hotels, nil
}

// Update updates a hotel
func (r *HotelRepository) Update(ctx context.Context, hotel *Hotel) error {
	query := `
		UPDATE hotels SET name = $2, is_active = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, hotel.ID, hotel.Name, hotel.IsActive)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("hotel")
	}

	return nil
}
