package handler_test

import (
	"context"
	"log"
	"net/http"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshstock/freshstock-backend/internal/stock/handler"
	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/internal/stock/service"
	"github.com/freshstock/freshstock-backend/pkg/logger"
	"github.com/freshstock/freshstock-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

type testApp struct {
	router   chi.Router
	stock    *service.StockService
	settings *service.SettingsService

	hotelRepo      *repository.HotelRepository
	departmentRepo *repository.DepartmentRepository
	productRepo    *repository.ProductRepository
	batchRepo      *repository.BatchRepository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	suite.Reset(t)

	lg := logger.New("test", "test")

	app := &testApp{
		hotelRepo:      repository.NewHotelRepository(suite.DB),
		departmentRepo: repository.NewDepartmentRepository(suite.DB),
		productRepo:    repository.NewProductRepository(suite.DB),
		batchRepo:      repository.NewBatchRepository(suite.DB),
	}

	writeOffRepo := repository.NewWriteOffRepository(suite.DB)
	settingRepo := repository.NewSettingRepository(suite.DB)

	app.settings = service.NewSettingsService(settingRepo, lg)
	app.stock = service.NewStockService(
		suite.DB, app.hotelRepo, app.departmentRepo, app.productRepo,
		app.batchRepo, writeOffRepo, nil, lg,
	)

	batchHandler := handler.NewBatchHandler(app.stock, app.settings, lg)
	collectHandler := handler.NewCollectHandler(app.stock, lg)
	settingHandler := handler.NewSettingHandler(app.settings, lg)

	r := chi.NewRouter()
	r.Post("/collect", collectHandler.Collect)
	r.Post("/batches", batchHandler.Create)
	r.Get("/batches/{id}", batchHandler.Get)
	r.Post("/batches/{id}/collect", collectHandler.CollectBatch)
	r.Get("/departments/{departmentID}/batches", batchHandler.ListByDepartment)
	r.Put("/settings", settingHandler.Set)
	r.Get("/settings/resolve", settingHandler.Resolve)
	app.router = r

	return app
}

func (a *testApp) seed(t *testing.T) (hotelID, deptID, productID string) {
	t.Helper()
	ctx := context.Background()

	hf := suite.Fixtures.Hotel()
	hotel := &repository.Hotel{ID: hf.ID, Name: hf.Name, IsActive: true}
	require.NoError(t, a.hotelRepo.Create(ctx, hotel))

	df := suite.Fixtures.Department(hotel.ID)
	dept := &repository.Department{ID: df.ID, HotelID: df.HotelID, Name: df.Name, IsActive: true}
	require.NoError(t, a.departmentRepo.Create(ctx, dept))

	pf := suite.Fixtures.Product(hotel.ID)
	product := &repository.Product{ID: pf.ID, HotelID: pf.HotelID, Name: pf.Name, Unit: pf.Unit, IsActive: true}
	require.NoError(t, a.productRepo.Create(ctx, product))

	return hotel.ID, dept.ID, product.ID
}

func TestCollectEndpoint(t *testing.T) {
	testutil.SkipIfShort(t)
	app := newTestApp(t)
	hotelID, deptID, productID := app.seed(t)

	// Receive two batches over the API
	rr := testutil.ExecuteRequest(app.router, testutil.NewHTTPRequest(http.MethodPost, "/batches", map[string]interface{}{
		"hotel_id":      hotelID,
		"department_id": deptID,
		"product_id":    productID,
		"quantity":      4,
		"expiry_date":   testutil.DateDaysFromNow(2).Format("2006-01-02"),
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = testutil.ExecuteRequest(app.router, testutil.NewHTTPRequest(http.MethodPost, "/batches", map[string]interface{}{
		"hotel_id":      hotelID,
		"department_id": deptID,
		"product_id":    productID,
		"quantity":      6,
		"expiry_date":   testutil.DateDaysFromNow(5).Format("2006-01-02"),
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	// Collect across them
	rr = testutil.ExecuteRequest(app.router, testutil.NewHTTPRequest(http.MethodPost, "/collect", map[string]interface{}{
		"hotel_id":      hotelID,
		"department_id": deptID,
		"product_id":    productID,
		"quantity":      7,
		"reason":        "consumption",
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Success bool                    `json:"success"`
		Data    service.CollectManifest `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 7, resp.Data.TotalCollected)
	require.Len(t, resp.Data.Lines, 2)
	assert.Equal(t, 4, resp.Data.Lines[0].Quantity)
	assert.True(t, resp.Data.Lines[0].Depleted)
}

func TestCollectEndpoint_InsufficientStock(t *testing.T) {
	testutil.SkipIfShort(t)
	app := newTestApp(t)
	hotelID, deptID, productID := app.seed(t)

	rr := testutil.ExecuteRequest(app.router, testutil.NewHTTPRequest(http.MethodPost, "/collect", map[string]interface{}{
		"hotel_id":      hotelID,
		"department_id": deptID,
		"product_id":    productID,
		"quantity":      3,
		"reason":        "consumption",
	}))
	testutil.AssertStatus(t, rr, http.StatusConflict)
	testutil.AssertBodyContains(t, rr, "INSUFFICIENT_STOCK")
}

func TestCollectEndpoint_Validation(t *testing.T) {
	testutil.SkipIfShort(t)
	app := newTestApp(t)

	rr := testutil.ExecuteRequest(app.router, testutil.NewHTTPRequest(http.MethodPost, "/collect", map[string]interface{}{
		"hotel_id": "not-a-uuid",
		"quantity": -2,
	}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestBatchListEndpoint_AnnotatesExpiryStatus(t *testing.T) {
	testutil.SkipIfShort(t)
	app := newTestApp(t)
	hotelID, deptID, productID := app.seed(t)
	ctx := context.Background()

	bf := suite.Fixtures.Batch(hotelID, deptID, productID, testutil.WithQuantity(5), testutil.ExpiringIn(2))
	batch := &repository.Batch{
		ID: bf.ID, HotelID: bf.HotelID, DepartmentID: bf.DepartmentID, ProductID: bf.ProductID,
		Quantity: bf.Quantity, ExpiryDate: bf.ExpiryDate, AddedBy: bf.AddedBy,
	}
	require.NoError(t, app.batchRepo.Create(ctx, batch))

	rr := testutil.ExecuteRequest(app.router, testutil.NewHTTPRequest(http.MethodGet, "/departments/"+deptID+"/batches", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Data []struct {
			ID           string `json:"id"`
			DaysLeft     int    `json:"days_left"`
			ExpiryStatus string `json:"expiry_status"`
		} `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, batch.ID, resp.Data[0].ID)
	assert.Equal(t, 2, resp.Data[0].DaysLeft)
	assert.Equal(t, "critical", resp.Data[0].ExpiryStatus)
}

func TestSettingEndpoints(t *testing.T) {
	testutil.SkipIfShort(t)
	app := newTestApp(t)

	// Invalid value is rejected with a client error
	rr := testutil.ExecuteRequest(app.router, testutil.NewHTTPRequest(http.MethodPut, "/settings", map[string]interface{}{
		"key":   "report.send_time",
		"scope": "system",
		"value": "later",
	}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = testutil.ExecuteRequest(app.router, testutil.NewHTTPRequest(http.MethodPut, "/settings", map[string]interface{}{
		"key":   "report.send_time",
		"scope": "system",
		"value": "14:00",
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.ExecuteRequest(app.router, testutil.NewHTTPRequest(http.MethodGet, "/settings/resolve?key=report.send_time", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Data service.ResolvedSetting `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &resp)
	assert.Equal(t, "14:00", resp.Data.Value)
	assert.Equal(t, "system", resp.Data.Scope)

	// Missing key parameter
	rr = testutil.ExecuteRequest(app.router, testutil.NewHTTPRequest(http.MethodGet, "/settings/resolve", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
