package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HotelFixture represents test hotel data
type HotelFixture struct {
	ID       string
	Name     string
	IsActive bool
}

// DepartmentFixture represents test department data
type DepartmentFixture struct {
	ID       string
	HotelID  string
	Name     string
	IsActive bool
}

// ProductFixture represents test product data
type ProductFixture struct {
	ID       string
	HotelID  string
	Name     string
	Category *string
	Unit     string
	IsActive bool
}

// BatchFixture represents test batch data
type BatchFixture struct {
	ID           string
	HotelID      string
	DepartmentID string
	ProductID    string
	Quantity     *int
	ExpiryDate   time.Time
	Status       string
	AddedBy      string
	AddedAt      time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Hotel creates a hotel fixture with defaults
func (f *FixtureFactory) Hotel(opts ...func(*HotelFixture)) HotelFixture {
	seq := f.nextSeq()

	hotel := HotelFixture{
		ID:       uuid.New().String(),
		Name:     fmt.Sprintf("Test Hotel %d", seq),
		IsActive: true,
	}

	for _, opt := range opts {
		opt(&hotel)
	}

	return hotel
}

// Department creates a department fixture attached to a hotel
func (f *FixtureFactory) Department(hotelID string, opts ...func(*DepartmentFixture)) DepartmentFixture {
	seq := f.nextSeq()

	dept := DepartmentFixture{
		ID:       uuid.New().String(),
		HotelID:  hotelID,
		Name:     fmt.Sprintf("Department %d", seq),
		IsActive: true,
	}

	for _, opt := range opts {
		opt(&dept)
	}

	return dept
}

// Product creates a product fixture attached to a hotel
func (f *FixtureFactory) Product(hotelID string, opts ...func(*ProductFixture)) ProductFixture {
	seq := f.nextSeq()

	product := ProductFixture{
		ID:       uuid.New().String(),
		HotelID:  hotelID,
		Name:     fmt.Sprintf("Product %d", seq),
		Unit:     "kg",
		IsActive: true,
	}

	for _, opt := range opts {
		opt(&product)
	}

	return product
}

// Batch creates a tracked batch fixture expiring in a week
func (f *FixtureFactory) Batch(hotelID, departmentID, productID string, opts ...func(*BatchFixture)) BatchFixture {
	quantity := 10

	batch := BatchFixture{
		ID:           uuid.New().String(),
		HotelID:      hotelID,
		DepartmentID: departmentID,
		ProductID:    productID,
		Quantity:     &quantity,
		ExpiryDate:   DateDaysFromNow(7),
		Status:       "active",
		AddedBy:      "test-user",
		AddedAt:      time.Now().UTC(),
	}

	for _, opt := range opts {
		opt(&batch)
	}

	return batch
}

// WithQuantity sets the batch quantity
func WithQuantity(quantity int) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.Quantity = &quantity
	}
}

// Untracked clears the batch quantity
func Untracked() func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.Quantity = nil
	}
}

// ExpiringIn sets the batch expiry to a number of days from now
func ExpiringIn(days int) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.ExpiryDate = DateDaysFromNow(days)
	}
}

// AddedAt sets the batch receipt time, used to pin tie-break ordering
func AddedAt(at time.Time) func(*BatchFixture) {
	return func(b *BatchFixture) {
		b.AddedAt = at
	}
}

// DateDaysFromNow returns midnight UTC the given number of days from today
func DateDaysFromNow(days int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
}
