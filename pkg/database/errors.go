package database

import (
	"strings"

	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/lib/pq"
)

// WrapError translates a PostgreSQL error into the AppError taxonomy.
// Errors with no translation pass through unchanged.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if appErr := MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "quantity_non_negative"):
		return errors.Validation(map[string]string{
			"quantity": "must not be negative",
		})

	case strings.Contains(constraint, "write_off_quantity_positive"):
		return errors.Validation(map[string]string{
			"quantity": "must be greater than zero",
		})

	case strings.Contains(constraint, "reason_valid"):
		return errors.Validation(map[string]string{
			"reason": "must be one of: consumption, sale, damaged, expired, other",
		})

	case strings.Contains(constraint, "scope_valid"):
		return errors.Validation(map[string]string{
			"scope": "must be one of: system, hotel, department, user",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "notifications_dedup"):
		return "a notification of this type already exists for this batch today"
	case strings.Contains(constraint, "settings_key_scope"):
		return "a setting with this key already exists for this scope"
	default:
		return "a record with these values already exists"
	}
}
