package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/internal/stock/service"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/freshstock/freshstock-backend/pkg/testutil"
)

func TestCollect_FIFODepletion(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)

	// b1 expires sooner, so it drains first
	b1 := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(4), testutil.ExpiringIn(2))
	b2 := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(6), testutil.ExpiringIn(5))

	manifest, err := env.stock.Collect(ctx, &service.CollectRequest{
		HotelID:      hotel.ID,
		DepartmentID: dept.ID,
		ProductID:    product.ID,
		Quantity:     7,
		Reason:       repository.ReasonConsumption,
		PerformedBy:  "chef-1",
	})
	require.NoError(t, err)
	require.Len(t, manifest.Lines, 2)
	assert.Equal(t, 7, manifest.TotalCollected)

	assert.Equal(t, b1.ID, manifest.Lines[0].BatchID)
	assert.Equal(t, 4, manifest.Lines[0].Quantity)
	assert.True(t, manifest.Lines[0].Depleted)
	assert.Equal(t, b2.ID, manifest.Lines[1].BatchID)
	assert.Equal(t, 3, manifest.Lines[1].Quantity)
	assert.False(t, manifest.Lines[1].Depleted)

	// b1 is fully depleted and no longer active
	got1, err := env.batchRepo.GetByID(ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.BatchStatusCollected, got1.Status)
	assert.Equal(t, 0, *got1.Quantity)
	assert.NotNil(t, got1.CollectedAt)
	require.NotNil(t, got1.CollectedBy)
	assert.Equal(t, "chef-1", *got1.CollectedBy)

	// b2 keeps the remainder
	got2, err := env.batchRepo.GetByID(ctx, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.BatchStatusActive, got2.Status)
	assert.Equal(t, 3, *got2.Quantity)

	// One write-off per touched batch
	wos1, err := env.writeOffRepo.ListByBatch(ctx, b1.ID)
	require.NoError(t, err)
	require.Len(t, wos1, 1)
	assert.Equal(t, 4, wos1[0].Quantity)
	assert.Equal(t, repository.ReasonConsumption, wos1[0].Reason)

	wos2, err := env.writeOffRepo.ListByBatch(ctx, b2.ID)
	require.NoError(t, err)
	require.Len(t, wos2, 1)
	assert.Equal(t, 3, wos2[0].Quantity)
}

func TestCollect_InsufficientStock(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)

	b1 := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(4), testutil.ExpiringIn(2))
	b2 := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(6), testutil.ExpiringIn(5))

	_, err := env.stock.Collect(ctx, &service.CollectRequest{
		HotelID:      hotel.ID,
		DepartmentID: dept.ID,
		ProductID:    product.ID,
		Quantity:     11,
		Reason:       repository.ReasonConsumption,
		PerformedBy:  "chef-1",
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)

	// Nothing changed: no partial depletion, no write-offs
	got1, err := env.batchRepo.GetByID(ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, *got1.Quantity)
	assert.Equal(t, repository.BatchStatusActive, got1.Status)

	got2, err := env.batchRepo.GetByID(ctx, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, *got2.Quantity)

	count1, err := env.writeOffRepo.CountByBatch(ctx, b1.ID)
	require.NoError(t, err)
	assert.Zero(t, count1)
}

func TestCollect_TieBreakByReceiptTime(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)

	earlier := time.Now().UTC().Add(-48 * time.Hour)
	later := time.Now().UTC().Add(-1 * time.Hour)

	// Same expiry date: the batch received first drains first
	old := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID,
		testutil.WithQuantity(5), testutil.ExpiringIn(3), testutil.AddedAt(earlier))
	fresh := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID,
		testutil.WithQuantity(5), testutil.ExpiringIn(3), testutil.AddedAt(later))

	manifest, err := env.stock.Collect(ctx, &service.CollectRequest{
		HotelID:      hotel.ID,
		DepartmentID: dept.ID,
		ProductID:    product.ID,
		Quantity:     6,
		Reason:       repository.ReasonSale,
		PerformedBy:  "chef-1",
	})
	require.NoError(t, err)
	require.Len(t, manifest.Lines, 2)
	assert.Equal(t, old.ID, manifest.Lines[0].BatchID)
	assert.Equal(t, 5, manifest.Lines[0].Quantity)
	assert.Equal(t, fresh.ID, manifest.Lines[1].BatchID)
	assert.Equal(t, 1, manifest.Lines[1].Quantity)
}

func TestCollect_SkipsUntrackedBatches(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)

	// Untracked batch expires soonest but has no counted quantity
	untracked := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.Untracked(), testutil.ExpiringIn(1))
	tracked := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(5), testutil.ExpiringIn(4))

	manifest, err := env.stock.Collect(ctx, &service.CollectRequest{
		HotelID:      hotel.ID,
		DepartmentID: dept.ID,
		ProductID:    product.ID,
		Quantity:     5,
		Reason:       repository.ReasonConsumption,
		PerformedBy:  "chef-1",
	})
	require.NoError(t, err)
	require.Len(t, manifest.Lines, 1)
	assert.Equal(t, tracked.ID, manifest.Lines[0].BatchID)

	got, err := env.batchRepo.GetByID(ctx, untracked.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.BatchStatusActive, got.Status)
	assert.Nil(t, got.Quantity)
}

func TestCollect_SkipsEmptiedBatches(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)

	// A correction can leave an active batch at quantity 0. It expires
	// soonest but has nothing to give, so the walk passes over it.
	empty := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(0), testutil.ExpiringIn(1))
	full := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(10), testutil.ExpiringIn(5))

	manifest, err := env.stock.Collect(ctx, &service.CollectRequest{
		HotelID:      hotel.ID,
		DepartmentID: dept.ID,
		ProductID:    product.ID,
		Quantity:     5,
		Reason:       repository.ReasonConsumption,
		PerformedBy:  "chef-1",
	})
	require.NoError(t, err)
	require.Len(t, manifest.Lines, 1)
	assert.Equal(t, full.ID, manifest.Lines[0].BatchID)
	assert.Equal(t, 5, manifest.Lines[0].Quantity)
	assert.Equal(t, 5, manifest.TotalCollected)

	// The emptied batch is untouched: still active, no write-off rows
	got, err := env.batchRepo.GetByID(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.BatchStatusActive, got.Status)
	assert.Equal(t, 0, *got.Quantity)

	count, err := env.writeOffRepo.CountByBatch(ctx, empty.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	gotFull, err := env.batchRepo.GetByID(ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, *gotFull.Quantity)
}

func TestCollect_RejectsBadInput(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)

	_, err := env.stock.Collect(ctx, &service.CollectRequest{
		HotelID: hotel.ID, DepartmentID: dept.ID, ProductID: product.ID,
		Quantity: 0, Reason: repository.ReasonConsumption, PerformedBy: "chef-1",
	})
	assert.Error(t, err)

	_, err = env.stock.Collect(ctx, &service.CollectRequest{
		HotelID: hotel.ID, DepartmentID: dept.ID, ProductID: product.ID,
		Quantity: 1, Reason: "vanished", PerformedBy: "chef-1",
	})
	assert.Error(t, err)
}

func TestCollectBatch_Partial(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)
	batch := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(5), testutil.ExpiringIn(3))

	manifest, err := env.stock.CollectBatch(ctx, &service.CollectBatchRequest{
		BatchID:     batch.ID,
		Quantity:    testutil.IntPtr(2),
		Reason:      repository.ReasonDamaged,
		PerformedBy: "chef-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, manifest.TotalCollected)
	assert.False(t, manifest.Lines[0].Depleted)

	got, err := env.batchRepo.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *got.Quantity)
	assert.Equal(t, repository.BatchStatusActive, got.Status)

	// Taking more than remains is refused
	_, err = env.stock.CollectBatch(ctx, &service.CollectBatchRequest{
		BatchID:     batch.ID,
		Quantity:    testutil.IntPtr(4),
		Reason:      repository.ReasonDamaged,
		PerformedBy: "chef-1",
	})
	require.Error(t, err)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
}

func TestCollectBatch_WholeRemainder(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)
	batch := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(5), testutil.ExpiringIn(3))

	manifest, err := env.stock.CollectBatch(ctx, &service.CollectBatchRequest{
		BatchID:     batch.ID,
		Reason:      repository.ReasonExpired,
		PerformedBy: "chef-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, manifest.TotalCollected)
	assert.True(t, manifest.Lines[0].Depleted)

	got, err := env.batchRepo.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.BatchStatusCollected, got.Status)

	// A collected batch cannot be collected again
	_, err = env.stock.CollectBatch(ctx, &service.CollectBatchRequest{
		BatchID:     batch.ID,
		Reason:      repository.ReasonExpired,
		PerformedBy: "chef-1",
	})
	assert.Error(t, err)
}

func TestCollectBatch_EmptiedBatchClosesWithoutWriteOff(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)
	batch := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(0), testutil.ExpiringIn(3))

	// Collecting a corrected-to-zero batch whole just closes it
	manifest, err := env.stock.CollectBatch(ctx, &service.CollectBatchRequest{
		BatchID:     batch.ID,
		Reason:      repository.ReasonConsumption,
		PerformedBy: "chef-1",
	})
	require.NoError(t, err)
	assert.True(t, manifest.Lines[0].Depleted)
	assert.Equal(t, 0, manifest.TotalCollected)

	got, err := env.batchRepo.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.BatchStatusCollected, got.Status)

	count, err := env.writeOffRepo.CountByBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCollectBatch_Untracked(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)
	batch := env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.Untracked(), testutil.ExpiringIn(1))

	// Partial collects make no sense without a counted quantity
	_, err := env.stock.CollectBatch(ctx, &service.CollectBatchRequest{
		BatchID:     batch.ID,
		Quantity:    testutil.IntPtr(2),
		Reason:      repository.ReasonConsumption,
		PerformedBy: "chef-1",
	})
	require.Error(t, err)

	manifest, err := env.stock.CollectBatch(ctx, &service.CollectBatchRequest{
		BatchID:     batch.ID,
		Reason:      repository.ReasonConsumption,
		PerformedBy: "chef-1",
	})
	require.NoError(t, err)
	assert.True(t, manifest.Lines[0].Depleted)

	got, err := env.batchRepo.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.BatchStatusCollected, got.Status)

	// No write-off is recorded: there was never a counted quantity
	count, err := env.writeOffRepo.CountByBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTotalAvailable(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)

	env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(4), testutil.ExpiringIn(2))
	env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(6), testutil.ExpiringIn(5))
	env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.Untracked(), testutil.ExpiringIn(1))

	total, err := env.stock.TotalAvailable(ctx, hotel.ID, dept.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}
