package repository_test

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/freshstock/freshstock-backend/pkg/testutil"
)

func TestWriteOffInsert_CheckViolationMapsToValidation(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewWriteOffRepository(mockDB.Wrapped())

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO write_offs").
		WillReturnError(&pq.Error{Code: "23514", Constraint: "write_off_quantity_positive"})

	tx, err := mockDB.DB.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.Insert(context.Background(), tx, &repository.WriteOff{
		HotelID:      "h1",
		DepartmentID: "d1",
		BatchID:      "b1",
		ProductID:    "p1",
		Quantity:     0,
		Reason:       repository.ReasonConsumption,
		PerformedBy:  "chef-1",
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Details, "quantity")

	mockDB.ExpectationsWereMet(t)
}

func TestWriteOffInsert_ForeignKeyViolationMapsToBadRequest(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewWriteOffRepository(mockDB.Wrapped())

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("INSERT INTO write_offs").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "write_offs_batch_id_fkey"})

	tx, err := mockDB.DB.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.Insert(context.Background(), tx, &repository.WriteOff{
		HotelID:      "h1",
		DepartmentID: "d1",
		BatchID:      "missing",
		ProductID:    "p1",
		Quantity:     2,
		Reason:       repository.ReasonDamaged,
		PerformedBy:  "chef-1",
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BAD_REQUEST", appErr.Code)

	mockDB.ExpectationsWereMet(t)
}
