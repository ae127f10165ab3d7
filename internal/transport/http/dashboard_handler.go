package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "agilboard/internal/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DashboardHandler serves dashboard snapshots as JSON and as a workbook download.
type DashboardHandler struct {
	service      DashboardServiceInterface
	export       ExportServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, export ExportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		export:       export,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the /api/dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetDashboard)
	r.Get("/export", h.ExportDashboard)
	return r
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.GetDashboardData(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build dashboard",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		h.errorHandler.HandleError(w, r, serviceError(err, "Failed to fetch dashboard data"))
		return
	}

	render.JSON(w, r, data)
}

// ExportDashboard handles GET /api/dashboard/export
func (h *DashboardHandler) ExportDashboard(w http.ResponseWriter, r *http.Request) {
	f, filename, err := h.export.ExportDashboard(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, "Failed to export dashboard"))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")

	if _, err := f.WriteTo(w); err != nil {
		// headers are already sent
		h.logger.ErrorContext(r.Context(), "failed to stream workbook",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
	}
}
