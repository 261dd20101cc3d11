package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/internal/stock/service"
	"github.com/freshstock/freshstock-backend/pkg/testutil"
)

func TestSendHotel_BuildsDepartmentSummary(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	kitchen := env.createDepartment(t, ctx, hotel.ID)
	bar := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)

	// Kitchen: one critical, one good. Bar: one expired.
	env.createBatch(t, ctx, hotel.ID, kitchen.ID, product.ID, testutil.WithQuantity(5), testutil.ExpiringIn(2))
	env.createBatch(t, ctx, hotel.ID, kitchen.ID, product.ID, testutil.WithQuantity(5), testutil.ExpiringIn(20))
	env.createBatch(t, ctx, hotel.ID, bar.ID, product.ID, testutil.WithQuantity(2), testutil.ExpiringIn(-2))

	require.NoError(t, env.reports.SendHotel(ctx, hotel.ID))

	notifications, _, err := env.notificationRepo.List(ctx, hotel.ID, repository.NotificationDailyReport, 1, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	report := notifications[0]
	assert.Contains(t, report.Message, hotel.Name)
	assert.Contains(t, report.Message, kitchen.Name+": 1 critical, 1 good")
	assert.Contains(t, report.Message, bar.Name+": 1 expired")
	assert.Nil(t, report.BatchID)

	require.Len(t, report.DeliveryResults, 1)
	assert.True(t, report.DeliveryResults[0].Success)

	messages := env.recorder.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, repository.NotificationDailyReport, messages[0].Type)
}

func TestSendHotel_ResendAllowed(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)
	env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(5), testutil.ExpiringIn(2))

	// Reports carry no dedup gate: an on-demand re-send is a new notification
	require.NoError(t, env.reports.SendHotel(ctx, hotel.ID))
	require.NoError(t, env.reports.SendHotel(ctx, hotel.ID))

	_, total, err := env.notificationRepo.List(ctx, hotel.ID, repository.NotificationDailyReport, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestSendHotel_EmptyStock(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	env.createDepartment(t, ctx, hotel.ID)

	require.NoError(t, env.reports.SendHotel(ctx, hotel.ID))

	notifications, _, err := env.notificationRepo.List(ctx, hotel.ID, repository.NotificationDailyReport, 1, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "no active stock")
}

func TestSendHotel_CustomTemplate(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	hotel := env.createHotel(t, ctx)
	dept := env.createDepartment(t, ctx, hotel.ID)
	product := env.createProduct(t, ctx, hotel.ID)
	env.createBatch(t, ctx, hotel.ID, dept.ID, product.ID, testutil.WithQuantity(5), testutil.ExpiringIn(2))

	env.setSetting(t, ctx, service.SettingReportTemplate, repository.ScopeHotel, &hotel.ID,
		"Stock digest {date} / {hotel}\n{summary}")

	require.NoError(t, env.reports.SendHotel(ctx, hotel.ID))

	notifications, _, err := env.notificationRepo.List(ctx, hotel.ID, repository.NotificationDailyReport, 1, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "Stock digest")
	assert.Contains(t, notifications[0].Message, hotel.Name)
}

func TestSendAll_CoversEveryHotel(t *testing.T) {
	testutil.SkipIfShort(t)
	env := newEnv(t)
	ctx := context.Background()

	h1 := env.createHotel(t, ctx)
	h2 := env.createHotel(t, ctx)

	require.NoError(t, env.reports.SendAll(ctx))

	_, total1, err := env.notificationRepo.List(ctx, h1.ID, repository.NotificationDailyReport, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total1)

	_, total2, err := env.notificationRepo.List(ctx, h2.ID, repository.NotificationDailyReport, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total2)
}
