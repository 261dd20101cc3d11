package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/internal/stock/service"
	"github.com/freshstock/freshstock-backend/pkg/actor"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/freshstock/freshstock-backend/pkg/httputil"
	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// BatchHandler handles batch endpoints
type BatchHandler struct {
	service  *service.StockService
	settings *service.SettingsService
	logger   *logger.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(svc *service.StockService, settings *service.SettingsService, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		service:  svc,
		settings: settings,
		logger:   log,
	}
}

type receiveBatchRequest struct {
	HotelID      string `json:"hotel_id" validate:"required,uuid"`
	DepartmentID string `json:"department_id" validate:"required,uuid"`
	ProductID    string `json:"product_id" validate:"required,uuid"`
	Quantity     *int   `json:"quantity,omitempty"`
	ExpiryDate   string `json:"expiry_date" validate:"required"`
}

// Create records a newly received batch
func (h *BatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req receiveBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		httputil.Error(w, errors.BadRequest("expiry_date must be YYYY-MM-DD"))
		return
	}

	batch := &repository.Batch{
		HotelID:      req.HotelID,
		DepartmentID: req.DepartmentID,
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		ExpiryDate:   expiry,
		AddedBy:      actor.IDFromContext(r.Context()),
	}

	if err := h.service.ReceiveBatch(r.Context(), batch); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, batch)
}

// Get gets a batch by ID
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	batch, err := h.service.GetBatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// ListByDepartment lists a department's active batches in depletion order,
// annotated with each batch's expiry status under the department's
// resolved thresholds
func (h *BatchHandler) ListByDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "departmentID")

	dept, err := h.service.GetDepartment(r.Context(), departmentID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	scope := service.ResolveScope{HotelID: &dept.HotelID, DepartmentID: &dept.ID}
	warning, critical, err := h.settings.Thresholds(r.Context(), scope)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	loc, err := h.settings.Location(r.Context(), scope)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batches, err := h.service.ListBatches(r.Context(), departmentID, warning, critical, time.Now().In(loc))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batches)
}

type updateBatchRequest struct {
	Quantity   *int   `json:"quantity,omitempty"`
	ExpiryDate string `json:"expiry_date" validate:"required"`
}

// Update corrects a batch's quantity or expiry date
func (h *BatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		httputil.Error(w, errors.BadRequest("expiry_date must be YYYY-MM-DD"))
		return
	}

	batch := &repository.Batch{ID: id, Quantity: req.Quantity, ExpiryDate: expiry}
	if err := h.service.UpdateBatch(r.Context(), batch); err != nil {
		httputil.Error(w, err)
		return
	}

	updated, err := h.service.GetBatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, updated)
}

// Delete removes a batch entered in error
func (h *BatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteBatch(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListWriteOffs lists the write-offs recorded against one batch
func (h *BatchHandler) ListWriteOffs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	writeOffs, err := h.service.ListBatchWriteOffs(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, writeOffs)
}
