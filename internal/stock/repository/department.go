package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/freshstock/freshstock-backend/pkg/database"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/google/uuid"
)

// Department represents a stock-holding unit inside one hotel
type Department struct {
	ID        string    `db:"id" json:"id"`
	HotelID   string    `db:"hotel_id" json:"hotel_id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentRepository handles department persistence
type DepartmentRepository struct {
	db *database.DB
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(db *database.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// Create creates a new department
func (r *DepartmentRepository) Create(ctx context.Context, dept *Department) error {
	if dept.ID == "" {
		dept.ID = uuid.New().String()
	}

	query := `
		INSERT INTO departments (id, hotel_id, name, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	if err := r.db.QueryRowxContext(ctx, query,
		dept.ID, dept.HotelID, dept.Name, dept.IsActive,
	).Scan(&dept.CreatedAt, &dept.UpdatedAt); err != nil {
		return database.WrapError(err)
	}
	return nil
}

// GetByID gets a department by ID
func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (*Department, error) {
	var dept Department
	query := `SELECT * FROM departments WHERE id = $1`
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("department")
		}
		return nil, err
	}
	return &dept, nil
}

// ListByHotel lists active departments for a hotel
func (r *DepartmentRepository) ListByHotel(ctx context.Context, hotelID string) ([]*Department, error) {
	var depts []*Department
	query := `
		SELECT * FROM departments
		WHERE hotel_id = $1 AND is_active = true
		ORDER BY name
	`
	if err := r.db.SelectContext(ctx, &depts, query, hotelID); err != nil {
		return nil, err
	}
	return depts, nil
}

// Update updates a department
func (r *DepartmentRepository) Update(ctx context.Context, dept *Department) error {
	query := `
		UPDATE departments SET name = $2, is_active = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, dept.ID, dept.Name, dept.IsActive)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("department")
	}

	return nil
}
