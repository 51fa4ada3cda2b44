package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dailytracker/backend/internal/handler/report"
	"github.com/dailytracker/backend/internal/handler/ws"
	"github.com/dailytracker/backend/internal/logging"
	middlewarePkg "github.com/dailytracker/backend/internal/middleware"
	"github.com/dailytracker/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(reports report.Loader, hub *ws.Hub, events ws.EventHandler, logger logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	reportHandler := report.New(reports, logger)
	wsHandler := ws.NewHandler(hub, events, logger)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":      "ok",
				"connections": hub.Len(),
			}); err != nil {
				logger.Warnw("write health response failed", "error", err)
			}
		})

		reportHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
