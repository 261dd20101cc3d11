package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/freshstock/freshstock-backend/pkg/database"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Batch statuses
const (
	BatchStatusActive    = "active"
	BatchStatusCollected = "collected"
)

// Batch represents a dated quantity of one product held by one department.
// Quantity is nil for untracked batches, which are excluded from FIFO
// depletion and can only be collected whole.
type Batch struct {
	ID           string     `db:"id" json:"id"`
	HotelID      string     `db:"hotel_id" json:"hotel_id"`
	DepartmentID string     `db:"department_id" json:"department_id"`
	ProductID    string     `db:"product_id" json:"product_id"`
	Quantity     *int       `db:"quantity" json:"quantity"`
	ExpiryDate   time.Time  `db:"expiry_date" json:"expiry_date"`
	Status       string     `db:"status" json:"status"`
	AddedBy      string     `db:"added_by" json:"added_by"`
	AddedAt      time.Time  `db:"added_at" json:"added_at"`
	CollectedAt  *time.Time `db:"collected_at" json:"collected_at,omitempty"`
	CollectedBy  *string    `db:"collected_by" json:"collected_by,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Tracked reports whether the batch quantity is managed by the system
func (b *Batch) Tracked() bool {
	return b.Quantity != nil
}

// BatchRepository handles batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create creates a new batch
func (r *BatchRepository) Create(ctx context.Context, batch *Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.Status == "" {
		batch.Status = BatchStatusActive
	}
	if batch.AddedAt.IsZero() {
		batch.AddedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO batches (
			id, hotel_id, department_id, product_id, quantity, expiry_date,
			status, added_by, added_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	if err := r.db.QueryRowxContext(ctx, query,
		batch.ID, batch.HotelID, batch.DepartmentID, batch.ProductID,
		batch.Quantity, batch.ExpiryDate, batch.Status, batch.AddedBy, batch.AddedAt,
	).Scan(&batch.CreatedAt, &batch.UpdatedAt); err != nil {
		return database.WrapError(err)
	}
	return nil
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM batches WHERE id = $1`
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// ListByDepartment lists active batches for a department
func (r *BatchRepository) ListByDepartment(ctx context.Context, departmentID string) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE department_id = $1 AND status = 'active'
		ORDER BY expiry_date, added_at
	`
	if err := r.db.SelectContext(ctx, &batches, query, departmentID); err != nil {
		return nil, err
	}
	return batches, nil
}

// ListActiveByHotel lists all active batches for a hotel, soonest expiry first
func (r *BatchRepository) ListActiveByHotel(ctx context.Context, hotelID string) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE hotel_id = $1 AND status = 'active'
		ORDER BY expiry_date, added_at
	`
	if err := r.db.SelectContext(ctx, &batches, query, hotelID); err != nil {
		return nil, err
	}
	return batches, nil
}

// SelectForCollect locks and returns the tracked active batches for one
// product in one department, in strict depletion order: soonest expiry
// first, ties broken by receipt time. Must run inside the collect
// transaction so concurrent collects on the same rows serialize.
func (r *BatchRepository) SelectForCollect(ctx context.Context, tx *sqlx.Tx, hotelID, departmentID, productID string) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE hotel_id = $1 AND department_id = $2 AND product_id = $3
		AND status = 'active' AND quantity IS NOT NULL
		ORDER BY expiry_date, added_at
		FOR UPDATE
	`
	if err := tx.SelectContext(ctx, &batches, query, hotelID, departmentID, productID); err != nil {
		return nil, err
	}
	return batches, nil
}

// DecrementQuantity reduces a batch's quantity by take, guarded by the
// quantity observed at selection time. Returns ConcurrentModification when
// the guard fails.
func (r *BatchRepository) DecrementQuantity(ctx context.Context, tx *sqlx.Tx, batchID string, observed, take int) error {
	query := `
		UPDATE batches SET quantity = quantity - $3, updated_at = NOW()
		WHERE id = $1 AND quantity = $2 AND status = 'active'
	`

	result, err := tx.ExecContext(ctx, query, batchID, observed, take)
	if err != nil {
		return database.WrapError(err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.ConcurrentModification("batch")
	}

	return nil
}

// MarkCollected transitions a fully depleted batch to collected
func (r *BatchRepository) MarkCollected(ctx context.Context, tx *sqlx.Tx, batchID, collectedBy string) error {
	query := `
		UPDATE batches SET status = 'collected', collected_at = NOW(), collected_by = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	result, err := tx.ExecContext(ctx, query, batchID, collectedBy)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.ConcurrentModification("batch")
	}

	return nil
}

// Update updates a batch's expiry date and quantity
func (r *BatchRepository) Update(ctx context.Context, batch *Batch) error {
	query := `
		UPDATE batches SET quantity = $2, expiry_date = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`

	result, err := r.db.ExecContext(ctx, query, batch.ID, batch.Quantity, batch.ExpiryDate)
	if err != nil {
		return database.WrapError(err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("batch")
	}

	return nil
}

// Delete deletes a batch. Batches referenced by write-offs must never be
// deleted; the write-off audit trail depends on them.
func (r *BatchRepository) Delete(ctx context.Context, id string) error {
	var refs int
	countQuery := `SELECT COUNT(*) FROM write_offs WHERE batch_id = $1`
	if err := r.db.GetContext(ctx, &refs, countQuery, id); err != nil {
		return err
	}
	if refs > 0 {
		return errors.Conflict("batch has write-offs and cannot be deleted")
	}

	query := `DELETE FROM batches WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("batch")
	}

	return nil
}

// TotalAvailable sums the tracked active stock for one product in one department
func (r *BatchRepository) TotalAvailable(ctx context.Context, hotelID, departmentID, productID string) (int, error) {
	var total sql.NullInt64
	query := `
		SELECT SUM(quantity) FROM batches
		WHERE hotel_id = $1 AND department_id = $2 AND product_id = $3
		AND status = 'active' AND quantity IS NOT NULL
	`
	if err := r.db.GetContext(ctx, &total, query, hotelID, departmentID, productID); err != nil {
		return 0, err
	}
	if !total.Valid {
		return 0, nil
	}
	return int(total.Int64), nil
}
