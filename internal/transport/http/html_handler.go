package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "agilboard/internal/errors"
)

// Page names, without the .html suffix of their template.
const (
	PageDashboard = "dashboard"
	PageProblems  = "problems"
	PageMap       = "map"
)

// pageData is what every page template receives.
type pageData struct {
	Title   string
	Active  string
	Version string
}

// PageHandler renders the HTML shells. The pages load their data from the JSON API.
type PageHandler struct {
	templates    *template.Template
	static       fs.FS
	version      string
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler parses templates/*.html from webFS and serves static/ from it.
func NewPageHandler(webFS fs.FS, version string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*PageHandler, error) {
	tmpl, err := template.ParseFS(webFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	static, err := fs.Sub(webFS, "static")
	if err != nil {
		return nil, fmt.Errorf("open static assets: %w", err)
	}

	return &PageHandler{
		templates:    tmpl,
		static:       static,
		version:      version,
		logger:       logger.With(slog.String("component", "page_handler")),
		errorHandler: errorHandler,
	}, nil
}

// Register mounts the page and asset routes on r.
func (h *PageHandler) Register(r chi.Router) {
	r.Get("/", h.Page(PageDashboard, "Dashboard"))
	r.Get("/problems", h.Page(PageProblems, "Problems"))
	r.Get("/map", h.Page(PageMap, "Map"))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(h.static))))
}

// Page returns a handler rendering the named template.
func (h *PageHandler) Page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// render into a buffer so a template failure can still produce a clean 500
		var buf bytes.Buffer
		data := pageData{Title: title, Active: name, Version: h.version}
		if err := h.templates.ExecuteTemplate(&buf, name+".html", data); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to render page",
				slog.String("page", name),
				slog.String("error", err.Error()))
			h.errorHandler.HandleError(w, r, apierrors.NewInternalError("Error rendering page"))
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}
