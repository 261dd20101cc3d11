package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/freshstock/freshstock-backend/internal/stock/service"
	"github.com/freshstock/freshstock-backend/pkg/actor"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/freshstock/freshstock-backend/pkg/httputil"
	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// CollectHandler handles stock depletion endpoints
type CollectHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewCollectHandler creates a new collect handler
func NewCollectHandler(svc *service.StockService, log *logger.Logger) *CollectHandler {
	return &CollectHandler{
		service: svc,
		logger:  log,
	}
}

// Collect depletes a quantity of one product from a department's stock in
// expiry order
func (h *CollectHandler) Collect(w http.ResponseWriter, r *http.Request) {
	var req service.CollectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	req.PerformedBy = actor.IDFromContext(r.Context())

	manifest, err := h.service.Collect(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, manifest)
}

// CollectBatch depletes one specific batch
func (h *CollectHandler) CollectBatch(w http.ResponseWriter, r *http.Request) {
	var req service.CollectBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	req.BatchID = chi.URLParam(r, "id")
	req.PerformedBy = actor.IDFromContext(r.Context())

	manifest, err := h.service.CollectBatch(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, manifest)
}

// ListDepartmentWriteOffs lists a department's write-offs within a time window
func (h *CollectHandler) ListDepartmentWriteOffs(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "departmentID")

	from, to, err := parseWindow(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	writeOffs, err := h.service.ListWriteOffs(r.Context(), departmentID, from, to)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, writeOffs)
}

// parseWindow reads the from/to query parameters, defaulting to the last
// thirty days
func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.BadRequest("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.BadRequest("to must be YYYY-MM-DD")
		}
		// Window end is exclusive, so include the named day
		to = parsed.AddDate(0, 0, 1)
	}

	return from, to, nil
}
