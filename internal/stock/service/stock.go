package service

import (
	"context"
	"time"

	"github.com/freshstock/freshstock-backend/internal/stock/events"
	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/pkg/database"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// StockService handles stock business logic: batch intake, FIFO depletion
// and the entities batches hang off
type StockService struct {
	db             *database.DB
	hotelRepo      *repository.HotelRepository
	departmentRepo *repository.DepartmentRepository
	productRepo    *repository.ProductRepository
	batchRepo      *repository.BatchRepository
	writeOffRepo   *repository.WriteOffRepository
	publisher      *events.StockEventPublisher
	logger         *logger.Logger
}

// NewStockService creates a new stock service
func NewStockService(
	db *database.DB,
	hotelRepo *repository.HotelRepository,
	departmentRepo *repository.DepartmentRepository,
	productRepo *repository.ProductRepository,
	batchRepo *repository.BatchRepository,
	writeOffRepo *repository.WriteOffRepository,
	publisher *events.StockEventPublisher,
	log *logger.Logger,
) *StockService {
	return &StockService{
		db:             db,
		hotelRepo:      hotelRepo,
		departmentRepo: departmentRepo,
		productRepo:    productRepo,
		batchRepo:      batchRepo,
		writeOffRepo:   writeOffRepo,
		publisher:      publisher,
		logger:         log,
	}
}

// Hotel operations

// CreateHotel creates a new hotel
func (s *StockService) CreateHotel(ctx context.Context, hotel *repository.Hotel) error {
	return s.hotelRepo.Create(ctx, hotel)
}

// GetHotel gets a hotel by ID
func (s *StockService) GetHotel(ctx context.Context, id string) (*repository.Hotel, error) {
	return s.hotelRepo.GetByID(ctx, id)
}

// ListHotels lists active hotels
func (s *StockService) ListHotels(ctx context.Context) ([]*repository.Hotel, error) {
	return s.hotelRepo.ListActive(ctx)
}

// UpdateHotel updates a hotel
func (s *StockService) UpdateHotel(ctx context.Context, hotel *repository.Hotel) error {
	return s.hotelRepo.Update(ctx, hotel)
}

// Department operations

// CreateDepartment creates a new department
func (s *StockService) CreateDepartment(ctx context.Context, dept *repository.Department) error {
	if _, err := s.hotelRepo.GetByID(ctx, dept.HotelID); err != nil {
		return err
	}
	return s.departmentRepo.Create(ctx, dept)
}

// GetDepartment gets a department by ID
func (s *StockService) GetDepartment(ctx context.Context, id string) (*repository.Department, error) {
	return s.departmentRepo.GetByID(ctx, id)
}

// ListDepartments lists departments for a hotel
func (s *StockService) ListDepartments(ctx context.Context, hotelID string) ([]*repository.Department, error) {
	return s.departmentRepo.ListByHotel(ctx, hotelID)
}

// UpdateDepartment updates a department
func (s *StockService) UpdateDepartment(ctx context.Context, dept *repository.Department) error {
	return s.departmentRepo.Update(ctx, dept)
}

// Product operations

// CreateProduct creates a new product
func (s *StockService) CreateProduct(ctx context.Context, product *repository.Product) error {
	if _, err := s.hotelRepo.GetByID(ctx, product.HotelID); err != nil {
		return err
	}
	return s.productRepo.Create(ctx, product)
}

// GetProduct gets a product by ID
func (s *StockService) GetProduct(ctx context.Context, id string) (*repository.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// ListProducts lists active products for a hotel
func (s *StockService) ListProducts(ctx context.Context, hotelID string) ([]*repository.Product, error) {
	return s.productRepo.ListByHotel(ctx, hotelID)
}

// UpdateProduct updates a product
func (s *StockService) UpdateProduct(ctx context.Context, product *repository.Product) error {
	return s.productRepo.Update(ctx, product)
}

// Batch operations

// ReceiveBatch records a new batch of stock. Quantity nil means the batch
// is untracked: visible to expiry scans but outside FIFO depletion.
func (s *StockService) ReceiveBatch(ctx context.Context, batch *repository.Batch) error {
	if batch.Quantity != nil && *batch.Quantity <= 0 {
		return errors.BadRequest("batch quantity must be positive")
	}

	dept, err := s.departmentRepo.GetByID(ctx, batch.DepartmentID)
	if err != nil {
		return err
	}
	if dept.HotelID != batch.HotelID {
		return errors.BadRequest("department does not belong to the hotel")
	}

	product, err := s.productRepo.GetByID(ctx, batch.ProductID)
	if err != nil {
		return err
	}
	if product.HotelID != batch.HotelID {
		return errors.BadRequest("product does not belong to the hotel")
	}

	if err := s.batchRepo.Create(ctx, batch); err != nil {
		return err
	}

	s.logger.Info().
		Str("batch_id", batch.ID).
		Str("product_id", batch.ProductID).
		Str("department_id", batch.DepartmentID).
		Time("expiry_date", batch.ExpiryDate).
		Msg("batch received")

	s.publisher.PublishBatchReceived(ctx, batch)
	return nil
}

// GetBatch gets a batch by ID
func (s *StockService) GetBatch(ctx context.Context, id string) (*repository.Batch, error) {
	return s.batchRepo.GetByID(ctx, id)
}

// BatchWithStatus is a batch annotated with its current expiry state
type BatchWithStatus struct {
	*repository.Batch
	DaysLeft     int          `json:"days_left"`
	ExpiryStatus ExpiryStatus `json:"expiry_status"`
}

// ListBatches lists a department's active batches in depletion order,
// annotated with expiry status under the department's resolved thresholds
func (s *StockService) ListBatches(ctx context.Context, departmentID string, warning, critical int, now time.Time) ([]*BatchWithStatus, error) {
	batches, err := s.batchRepo.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	annotated := make([]*BatchWithStatus, 0, len(batches))
	for _, b := range batches {
		daysLeft := DaysLeft(b.ExpiryDate, now)
		annotated = append(annotated, &BatchWithStatus{
			Batch:        b,
			DaysLeft:     daysLeft,
			ExpiryStatus: ClassifyExpiry(daysLeft, warning, critical),
		})
	}
	return annotated, nil
}

// UpdateBatch corrects a batch's quantity or expiry date
func (s *StockService) UpdateBatch(ctx context.Context, batch *repository.Batch) error {
	if batch.Quantity != nil && *batch.Quantity < 0 {
		return errors.BadRequest("batch quantity must not be negative")
	}
	return s.batchRepo.Update(ctx, batch)
}

// DeleteBatch removes a batch that was entered in error. Batches with
// write-offs against them are refused.
func (s *StockService) DeleteBatch(ctx context.Context, id string) error {
	return s.batchRepo.Delete(ctx, id)
}

// TotalAvailable sums the tracked active stock for one product in one department
func (s *StockService) TotalAvailable(ctx context.Context, hotelID, departmentID, productID string) (int, error) {
	return s.batchRepo.TotalAvailable(ctx, hotelID, departmentID, productID)
}

// ListWriteOffs lists a department's write-offs within a time window
func (s *StockService) ListWriteOffs(ctx context.Context, departmentID string, from, to time.Time) ([]*repository.WriteOff, error) {
	return s.writeOffRepo.ListByDepartment(ctx, departmentID, from, to)
}

// ListBatchWriteOffs lists the write-offs recorded against one batch
func (s *StockService) ListBatchWriteOffs(ctx context.Context, batchID string) ([]*repository.WriteOff, error) {
	return s.writeOffRepo.ListByBatch(ctx, batchID)
}
