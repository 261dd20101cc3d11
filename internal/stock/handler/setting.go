package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshstock/freshstock-backend/internal/stock/repository"
	"github.com/freshstock/freshstock-backend/internal/stock/service"
	"github.com/freshstock/freshstock-backend/pkg/actor"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/freshstock/freshstock-backend/pkg/httputil"
	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// SettingHandler handles setting endpoints
type SettingHandler struct {
	settings *service.SettingsService
	logger   *logger.Logger
}

// NewSettingHandler creates a new setting handler
func NewSettingHandler(settings *service.SettingsService, log *logger.Logger) *SettingHandler {
	return &SettingHandler{
		settings: settings,
		logger:   log,
	}
}

// Resolve returns the effective value of a key in the caller's context,
// including which scope supplied it
func (h *SettingHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	key := q.Get("key")
	if key == "" {
		httputil.Error(w, errors.BadRequest("key query parameter is required"))
		return
	}

	scope := service.ResolveScope{}
	if v := q.Get("hotel_id"); v != "" {
		scope.HotelID = &v
	}
	if v := q.Get("department_id"); v != "" {
		scope.DepartmentID = &v
	}
	if v := q.Get("user_id"); v != "" {
		scope.UserID = &v
	}

	resolved, err := h.settings.Resolve(r.Context(), key, scope)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, resolved)
}

// List lists the settings stored at one scope target
func (h *SettingHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")

	var scopeID *string
	if v := r.URL.Query().Get("scope_id"); v != "" {
		scopeID = &v
	}

	settings, err := h.settings.ListForScope(r.Context(), scope, scopeID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, settings)
}

type setSettingRequest struct {
	Key     string  `json:"key" validate:"required"`
	Scope   string  `json:"scope" validate:"required"`
	ScopeID *string `json:"scope_id,omitempty"`
	Value   string  `json:"value" validate:"required"`
}

// Set validates and stores a setting
func (h *SettingHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setSettingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	setting := &repository.Setting{
		Key:       req.Key,
		Scope:     req.Scope,
		ScopeID:   req.ScopeID,
		Value:     req.Value,
		UpdatedBy: actor.IDFromContext(r.Context()),
	}

	if err := h.settings.Set(r.Context(), setting); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, setting)
}

type deleteSettingRequest struct {
	Key     string  `json:"key" validate:"required"`
	Scope   string  `json:"scope" validate:"required"`
	ScopeID *string `json:"scope_id,omitempty"`
}

// Delete removes a stored setting so resolution falls through to the next
// scope
func (h *SettingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteSettingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.settings.Delete(r.Context(), req.Key, req.Scope, req.ScopeID); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
