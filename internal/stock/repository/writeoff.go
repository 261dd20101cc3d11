package repository

import (
	"context"
	"time"

	"github.com/freshstock/freshstock-backend/pkg/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Write-off reasons
const (
	ReasonConsumption = "consumption"
	ReasonSale        = "sale"
	ReasonDamaged     = "damaged"
	ReasonExpired     = "expired"
	ReasonOther       = "other"
)

// WriteOff is an immutable audit record of a depletion event against one batch
type WriteOff struct {
	ID           string    `db:"id" json:"id"`
	HotelID      string    `db:"hotel_id" json:"hotel_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	BatchID      string    `db:"batch_id" json:"batch_id"`
	ProductID    string    `db:"product_id" json:"product_id"`
	Quantity     int       `db:"quantity" json:"quantity"`
	Reason       string    `db:"reason" json:"reason"`
	Comment      *string   `db:"comment" json:"comment,omitempty"`
	PerformedBy  string    `db:"performed_by" json:"performed_by"`
	PerformedAt  time.Time `db:"performed_at" json:"performed_at"`
}

// ValidReason reports whether the reason is one of the known write-off reasons
func ValidReason(reason string) bool {
	switch reason {
	case ReasonConsumption, ReasonSale, ReasonDamaged, ReasonExpired, ReasonOther:
		return true
	}
	return false
}

// WriteOffRepository handles write-off persistence. Write-offs are
// insert-only; there are no update or delete operations.
type WriteOffRepository struct {
	db *database.DB
}

// NewWriteOffRepository creates a new write-off repository
func NewWriteOffRepository(db *database.DB) *WriteOffRepository {
	return &WriteOffRepository{db: db}
}

// Insert creates a write-off row inside the collect transaction
func (r *WriteOffRepository) Insert(ctx context.Context, tx *sqlx.Tx, wo *WriteOff) error {
	if wo.ID == "" {
		wo.ID = uuid.New().String()
	}

	query := `
		INSERT INTO write_offs (
			id, hotel_id, department_id, batch_id, product_id,
			quantity, reason, comment, performed_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING performed_at
	`

	if err := tx.QueryRowxContext(ctx, query,
		wo.ID, wo.HotelID, wo.DepartmentID, wo.BatchID, wo.ProductID,
		wo.Quantity, wo.Reason, wo.Comment, wo.PerformedBy,
	).Scan(&wo.PerformedAt); err != nil {
		return database.WrapError(err)
	}
	return nil
}

// ListByBatch lists write-offs for one batch, newest first
func (r *WriteOffRepository) ListByBatch(ctx context.Context, batchID string) ([]*WriteOff, error) {
	var writeOffs []*WriteOff
	query := `
		SELECT * FROM write_offs
		WHERE batch_id = $1
		ORDER BY performed_at DESC
	`
	if err := r.db.SelectContext(ctx, &writeOffs, query, batchID); err != nil {
		return nil, err
	}
	return writeOffs, nil
}

// ListByDepartment lists write-offs for a department within a time window
func (r *WriteOffRepository) ListByDepartment(ctx context.Context, departmentID string, from, to time.Time) ([]*WriteOff, error) {
	var writeOffs []*WriteOff
	query := `
		SELECT * FROM write_offs
		WHERE department_id = $1 AND performed_at >= $2 AND performed_at < $3
		ORDER BY performed_at DESC
	`
	if err := r.db.SelectContext(ctx, &writeOffs, query, departmentID, from, to); err != nil {
		return nil, err
	}
	return writeOffs, nil
}

// CountByBatch counts write-offs referencing a batch
func (r *WriteOffRepository) CountByBatch(ctx context.Context, batchID string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM write_offs WHERE batch_id = $1`
	if err := r.db.GetContext(ctx, &count, query, batchID); err != nil {
		return 0, err
	}
	return count, nil
}
