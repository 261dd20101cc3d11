package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/freshstock/freshstock-backend/pkg/httputil"
	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// NotificationHandler handles notification endpoints
type NotificationHandler struct {
	repo   *repository.NotificationRepository
	logger *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(repo *repository.NotificationRepository, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		repo:   repo,
		logger: log,
	}
}

// List lists a hotel's notifications, newest first, with optional type
// filtering
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	hotelID := r.URL.Query().Get("hotel_id")
	if hotelID == "" {
		httputil.Error(w, errors.BadRequest("hotel_id query parameter is required"))
		return
	}

	notificationType := r.URL.Query().Get("type")

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	notifications, total, err := h.repo.List(r.Context(), hotelID, notificationType, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, notifications, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Get gets a notification by ID
func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	notification, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, notification)
}
