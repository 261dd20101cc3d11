package repository

import (
	"context"
	"time"

	"github.com/freshstock/freshstock-backend/pkg/database"
	"github.com/freshstock/freshstock-backend/pkg/errors"
)

// Setting scopes, from most to least specific
const (
	ScopeUser       = "user"
	ScopeDepartment = "department"
	ScopeHotel      = "hotel"
	ScopeSystem     = "system"
)

// Setting is a scoped key/value pair. ScopeID is nil for system scope.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Scope     string    `db:"scope" json:"scope"`
	ScopeID   *string   `db:"scope_id" json:"scope_id,omitempty"`
	Value     string    `db:"value" json:"value"`
	UpdatedBy string    `db:"updated_by" json:"updated_by"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ValidScope reports whether the scope is one of the known setting scopes
func ValidScope(scope string) bool {
	switch scope {
	case ScopeUser, ScopeDepartment, ScopeHotel, ScopeSystem:
		return true
	}
	return false
}

// SettingRepository handles setting persistence
type SettingRepository struct {
	db *database.DB
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(db *database.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Upsert creates or replaces a setting for its (key, scope, scope_id)
func (r *SettingRepository) Upsert(ctx context.Context, s *Setting) error {
	query := `
		INSERT INTO settings (key, scope, scope_id, value, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (key, scope, COALESCE(scope_id, '')) DO UPDATE
		SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, s.Key, s.Scope, s.ScopeID, s.Value, s.UpdatedBy)
	return database.WrapError(err)
}

// GetCandidates fetches every setting row that could resolve the key in the
// given context: the system row plus the hotel/department/user rows whose
// scope IDs are supplied. Precedence is applied by the resolver, not here.
func (r *SettingRepository) GetCandidates(ctx context.Context, key string, hotelID, departmentID, userID *string) ([]*Setting, error) {
	var settings []*Setting
	query := `
		SELECT * FROM settings
		WHERE key = $1 AND (
			scope = 'system'
			OR (scope = 'hotel' AND scope_id = $2)
			OR (scope = 'department' AND scope_id = $3)
			OR (scope = 'user' AND scope_id = $4)
		)
	`
	if err := r.db.SelectContext(ctx, &settings, query, key, hotelID, departmentID, userID); err != nil {
		return nil, err
	}
	return settings, nil
}

// ListByScope lists all settings defined for one scope target
func (r *SettingRepository) ListByScope(ctx context.Context, scope string, scopeID *string) ([]*Setting, error) {
	var settings []*Setting

	if scope == ScopeSystem {
		query := `SELECT * FROM settings WHERE scope = 'system' ORDER BY key`
		if err := r.db.SelectContext(ctx, &settings, query); err != nil {
			return nil, err
		}
		return settings, nil
	}

	query := `SELECT * FROM settings WHERE scope = $1 AND scope_id = $2 ORDER BY key`
	if err := r.db.SelectContext(ctx, &settings, query, scope, scopeID); err != nil {
		return nil, err
	}
	return settings, nil
}

// Delete removes a setting, falling back to the next scope in precedence
func (r *SettingRepository) Delete(ctx context.Context, key, scope string, scopeID *string) error {
	var result interface {
		RowsAffected() (int64, error)
	}
	var err error

	if scope == ScopeSystem {
		query := `DELETE FROM settings WHERE key = $1 AND scope = 'system'`
		result, err = r.db.ExecContext(ctx, query, key)
	} else {
		query := `DELETE FROM settings WHERE key = $1 AND scope = $2 AND scope_id = $3`
		result, err = r.db.ExecContext(ctx, query, key, scope, scopeID)
	}
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("setting")
	}

	return nil
}
