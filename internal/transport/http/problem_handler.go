package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "agilboard/internal/errors"
	"agilboard/internal/exporter"
	customMiddleware "agilboard/internal/middleware"
	"agilboard/internal/upstream"
)

// AssignRequest is the body of PUT /api/problems/{id}/assign. A missing or null technicianId
// unassigns the problem.
type AssignRequest struct {
	TechnicianID *upstream.ID `json:"technicianId"`
}

// StatusRequest is the body of PUT /api/problems/{id}/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=waiting progressing solved"`
}

// ProblemHandler serves the joined problem list and forwards problem mutations.
type ProblemHandler struct {
	service      ProblemServiceInterface
	validator    *customMiddleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	now          func() time.Time
}

// NewProblemHandler creates a new problem handler
func NewProblemHandler(service ProblemServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ProblemHandler {
	return &ProblemHandler{
		service:      service,
		validator:    customMiddleware.NewValidator(logger),
		logger:       logger.With(slog.String("component", "problem_handler")),
		errorHandler: errorHandler,
		now:          time.Now,
	}
}

// Routes returns the /api/problems routes
func (h *ProblemHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListProblems)
	r.Get("/export", h.ExportProblems)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetProblem)
		r.With(customMiddleware.ContentTypeValidator("application/json")).Put("/assign", h.AssignProblem)
		r.With(customMiddleware.ContentTypeValidator("application/json")).Put("/status", h.UpdateStatus)
	})

	return r
}

// ListProblems handles GET /api/problems
func (h *ProblemHandler) ListProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.service.GetAllProblems(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list problems",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		h.errorHandler.HandleError(w, r, serviceError(err, "Failed to fetch problems"))
		return
	}

	render.JSON(w, r, problems)
}

// ExportProblems handles GET /api/problems/export, the joined list as a CSV download.
func (h *ProblemHandler) ExportProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.service.GetAllProblems(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, "Failed to export problems"))
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteProblems(&buf, problems); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewInternalError("Failed to export problems"))
		return
	}

	filename := exporter.ProblemsFileName(h.now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetProblem handles GET /api/problems/{id}
func (h *ProblemHandler) GetProblem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	problem, err := h.service.GetProblem(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, "Failed to fetch problem"))
		return
	}

	render.JSON(w, r, problem)
}

// AssignProblem handles PUT /api/problems/{id}/assign
func (h *ProblemHandler) AssignProblem(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	relay, err := h.service.AssignProblem(r.Context(), chi.URLParam(r, "id"), req.TechnicianID)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, "Failed to assign problem"))
		return
	}

	writeRelay(w, r, relay)
}

// UpdateStatus handles PUT /api/problems/{id}/status
func (h *ProblemHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	relay, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, "Failed to update problem status"))
		return
	}

	writeRelay(w, r, relay)
}
