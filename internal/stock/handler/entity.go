package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/internal/stock/service"
	"github.com/freshstock/freshstock-backend/pkg/httputil"
	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// EntityHandler handles hotel, department and product endpoints
type EntityHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(svc *service.StockService, log *logger.Logger) *EntityHandler {
	return &EntityHandler{
		service: svc,
		logger:  log,
	}
}

// Hotels

// ListHotels lists active hotels
func (h *EntityHandler) ListHotels(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.service.ListHotels(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, hotels)
}

// GetHotel gets a hotel by ID
func (h *EntityHandler) GetHotel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	hotel, err := h.service.GetHotel(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, hotel)
}

// CreateHotel creates a new hotel
func (h *EntityHandler) CreateHotel(w http.ResponseWriter, r *http.Request) {
	var hotel repository.Hotel
	if err := httputil.DecodeJSON(r, &hotel); err != nil {
		httputil.Error(w, err)
		return
	}

	hotel.IsActive = true
	if err := h.service.CreateHotel(r.Context(), &hotel); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, hotel)
}

// UpdateHotel updates a hotel
func (h *EntityHandler) UpdateHotel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var hotel repository.Hotel
	if err := httputil.DecodeJSON(r, &hotel); err != nil {
		httputil.Error(w, err)
		return
	}

	hotel.ID = id
	if err := h.service.UpdateHotel(r.Context(), &hotel); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, hotel)
}

// Departments

// ListDepartments lists a hotel's departments
func (h *EntityHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	hotelID := chi.URLParam(r, "hotelID")

	departments, err := h.service.ListDepartments(r.Context(), hotelID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, departments)
}

// CreateDepartment creates a department under a hotel
func (h *EntityHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	hotelID := chi.URLParam(r, "hotelID")

	var dept repository.Department
	if err := httputil.DecodeJSON(r, &dept); err != nil {
		httputil.Error(w, err)
		return
	}

	dept.HotelID = hotelID
	dept.IsActive = true
	if err := h.service.CreateDepartment(r.Context(), &dept); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, dept)
}

// UpdateDepartment updates a department
func (h *EntityHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dept repository.Department
	if err := httputil.DecodeJSON(r, &dept); err != nil {
		httputil.Error(w, err)
		return
	}

	dept.ID = id
	if err := h.service.UpdateDepartment(r.Context(), &dept); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, dept)
}

// Products

// ListProducts lists a hotel's active products
func (h *EntityHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	hotelID := chi.URLParam(r, "hotelID")

	products, err := h.service.ListProducts(r.Context(), hotelID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, products)
}

// CreateProduct creates a product under a hotel
func (h *EntityHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	hotelID := chi.URLParam(r, "hotelID")

	var product repository.Product
	if err := httputil.DecodeJSON(r, &product); err != nil {
		httputil.Error(w, err)
		return
	}

	product.HotelID = hotelID
	product.IsActive = true
	if err := h.service.CreateProduct(r.Context(), &product); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, product)
}

// UpdateProduct updates a product
func (h *EntityHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var product repository.Product
	if err := httputil.DecodeJSON(r, &product); err != nil {
		httputil.Error(w, err)
		return
	}

	product.ID = id
	if err := h.service.UpdateProduct(r.Context(), &product); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}
