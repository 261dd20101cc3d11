package handler

import (
	"net/http"

	"github.com/freshstock/freshstock-backend/internal/stock/service"
	"github.com/freshstock/freshstock-backend/pkg/httputil"
	"github.com/freshstock/freshstock-backend/pkg/logger"
)

// TaskHandler exposes manual triggers for the scheduled tasks
type TaskHandler struct {
	scheduler *service.Scheduler
	logger    *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(scheduler *service.Scheduler, log *logger.Logger) *TaskHandler {
	return &TaskHandler{
		scheduler: scheduler,
		logger:    log,
	}
}

// RunScan triggers one expiry scan cycle outside the schedule
func (h *TaskHandler) RunScan(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.RunScanNow(r.Context()); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "scan completed"})
}

// RunReport triggers one daily report cycle outside the schedule
func (h *TaskHandler) RunReport(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.RunReportNow(r.Context()); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "report completed"})
}
