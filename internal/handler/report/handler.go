package report

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dailytracker/backend/internal/logging"
	"github.com/dailytracker/backend/internal/model/diary"
	reportService "github.com/dailytracker/backend/internal/service/report"
	"github.com/dailytracker/backend/internal/storage"
	"github.com/dailytracker/backend/pkg/utils"
)

// Loader is the report generator as seen by the HTTP layer.
type Loader interface {
	Load(ctx context.Context, userID int64, day diary.Day) (reportService.Daily, error)
	Today() diary.Day
}

// Handler serves daily reports over HTTP.
type Handler struct {
	reports Loader
	logger  logging.Logger
}

// New creates the report HTTP handler.
func New(reports Loader, logger logging.Logger) *Handler {
	return &Handler{reports: reports, logger: logger.With("component", "report-http")}
}

// RegisterRoutes mounts the report endpoint on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/users/{userID}/report", h.handleReport)
}

// handleReport returns the report of ?date=YYYY-MM-DD, today when absent.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "userID must be a positive integer")
		return
	}

	day := h.reports.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		if day, err = diary.ParseDay(raw); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "date must be written as YYYY-MM-DD")
			return
		}
	}

	daily, err := h.reports.Load(r.Context(), userID, day)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		h.logger.Errorw("load report failed", "user_id", userID, "date", day.String(), "error", err)
		utils.RespondError(w, status, "report unavailable")
		return
	}

	if err := utils.RespondJSON(w, http.StatusOK, daily); err != nil {
		h.logger.Warnw("write report response failed", "user_id", userID, "error", err)
	}
}
