package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/freshstock/freshstock-backend/pkg/database"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/google/uuid"
)

// Notification types
const (
	NotificationExpiringSoon  = "expiring_soon"
	NotificationExpiringToday = "expiring_today"
	NotificationExpired       = "expired"
	NotificationDailyReport   = "daily_report"
)

// DeliveryResult records the outcome of one channel dispatch
type DeliveryResult struct {
	Channel string    `json:"channel"`
	Success bool      `json:"success"`
	Detail  string    `json:"detail,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// DeliveryResults is stored as JSONB
type DeliveryResults []DeliveryResult

// Value implements driver.Valuer
func (d DeliveryResults) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner
func (d *DeliveryResults) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type %T for DeliveryResults", src)
	}
	return json.Unmarshal(b, d)
}

// Notification is a generated alert about one batch's expiry state, or a
// per-hotel aggregated report artifact (batch_id null).
type Notification struct {
	ID              string          `db:"id" json:"id"`
	HotelID         string          `db:"hotel_id" json:"hotel_id"`
	DepartmentID    *string         `db:"department_id" json:"department_id,omitempty"`
	BatchID         *string         `db:"batch_id" json:"batch_id,omitempty"`
	Type            string          `db:"type" json:"type"`
	Message         string          `db:"message" json:"message"`
	LocalDay        time.Time       `db:"local_day" json:"local_day"`
	DeliveryResults DeliveryResults `db:"delivery_results" json:"delivery_results,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// NotificationRepository handles notification persistence
type NotificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateIfAbsent inserts a per-batch notification unless one with the same
// (hotel, batch, type, local day) already exists. The check and insert are a
// single statement, so two overlapping scan runs cannot both create one.
// Returns true when the row was created.
func (r *NotificationRepository) CreateIfAbsent(ctx context.Context, n *Notification) (bool, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	query := `
		INSERT INTO notifications (id, hotel_id, department_id, batch_id, type, message, local_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (hotel_id, batch_id, type, local_day) WHERE batch_id IS NOT NULL DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		n.ID, n.HotelID, n.DepartmentID, n.BatchID, n.Type, n.Message, n.LocalDay,
	)
	if err != nil {
		return false, database.WrapError(err)
	}

	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// Create inserts a notification without a dedup gate. Used for daily
// reports, which may be re-sent on demand.
func (r *NotificationRepository) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	query := `
		INSERT INTO notifications (id, hotel_id, department_id, batch_id, type, message, local_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	if err := r.db.QueryRowxContext(ctx, query,
		n.ID, n.HotelID, n.DepartmentID, n.BatchID, n.Type, n.Message, n.LocalDay,
	).Scan(&n.CreatedAt); err != nil {
		return database.WrapError(err)
	}
	return nil
}

// SetDeliveryResults records the per-channel outcomes after dispatch
func (r *NotificationRepository) SetDeliveryResults(ctx context.Context, id string, results DeliveryResults) error {
	query := `UPDATE notifications SET delivery_results = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, results)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("notification")
	}

	return nil
}

// GetByID gets a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	query := `SELECT * FROM notifications WHERE id = $1`
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("notification")
		}
		return nil, err
	}
	return &n, nil
}

// List lists notifications for a hotel with optional type filtering
func (r *NotificationRepository) List(ctx context.Context, hotelID, notificationType string, page, perPage int) ([]*Notification, int64, error) {
	args := []interface{}{hotelID}
	countQuery := `SELECT COUNT(*) FROM notifications WHERE hotel_id = $1`
	query := `SELECT * FROM notifications WHERE hotel_id = $1`

	if notificationType != "" {
		countQuery += ` AND type = $2`
		query += ` AND type = $2`
		args = append(args, notificationType)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	var notifications []*Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// ExistsForDay reports whether a per-batch notification of the given type
// already exists for the hotel-local day
func (r *NotificationRepository) ExistsForDay(ctx context.Context, hotelID, batchID, notificationType string, localDay time.Time) (bool, error) {
	var count int64
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE hotel_id = $1 AND batch_id = $2 AND type = $3 AND local_day = $4
	`
	if err := r.db.GetContext(ctx, &count, query, hotelID, batchID, notificationType, localDay); err != nil {
		return false, err
	}
	return count > 0, nil
}
