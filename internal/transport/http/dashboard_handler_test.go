package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "agilboard/internal/errors"
	"agilboard/internal/services"
)

func sampleDashboard() *services.DashboardData {
	return &services.DashboardData{
		UserStats: services.UserStats{
			TotalUsers:       3,
			UsersByRole:      map[string]int{"chef": 1, "technicien": 2},
			AvailableUsers:   1,
			UnavailableUsers: 2,
		},
		ProblemStats: services.ProblemStats{
			TotalProblems:     2,
			ProblemsByType:    map[string]int{"mechanical": 2},
			RecentProblems:    nil,
			MonthlyComparison: map[string]int{},
		},
		SystemStatus: services.SystemStatus{
			UserService:         true,
			ProblemService:      true,
			NotificationService: true,
		},
	}
}

func dashboardRouter(svc *MockDashboardService, export *MockExportService) http.Handler {
	r := chi.NewRouter()
	r.Mount("/api/dashboard", NewDashboardHandler(svc, export, quietLogger(), newErrorHandler()).Routes())
	return r
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	t.Run("snapshot", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("GetDashboardData").Return(sampleDashboard(), nil)

		w := httptest.NewRecorder()
		dashboardRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body, "user_stats")
		assert.Contains(t, body, "problem_stats")
		status := body["system_status"].(map[string]any)
		assert.Equal(t, true, status["notification_service"])
		assert.Equal(t, false, status["available_technicians"])
	})

	t.Run("user service down yields 502 without partial body", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("GetDashboardData").Return(nil, usersDown())

		w := httptest.NewRecorder()
		dashboardRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, apierrors.TypeUpstreamUnavailable, body["type"])
		assert.NotContains(t, body, "user_stats")
	})

	t.Run("timeout", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("GetDashboardData").Return(nil, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		dashboardRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})
}

func TestDashboardHandler_ExportDashboard(t *testing.T) {
	t.Run("workbook download", func(t *testing.T) {
		f, err := services.BuildDashboardWorkbook(sampleDashboard())
		require.NoError(t, err)

		export := new(MockExportService)
		export.On("ExportDashboard").Return(f, "dashboard_2024-05-01.xlsx", nil)

		w := httptest.NewRecorder()
		dashboardRouter(nil, export).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/export", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="dashboard_2024-05-01.xlsx"`, w.Header().Get("Content-Disposition"))

		book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer book.Close()
		assert.Equal(t, []string{services.SheetSummary, services.SheetRoles, services.SheetTypes, services.SheetRecent}, book.GetSheetList())
	})

	t.Run("user service down", func(t *testing.T) {
		export := new(MockExportService)
		export.On("ExportDashboard").Return(nil, "", usersDown())

		w := httptest.NewRecorder()
		dashboardRouter(nil, export).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/export", nil))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("workbook failure", func(t *testing.T) {
		export := new(MockExportService)
		export.On("ExportDashboard").Return(nil, "", errors.Join(services.ErrExportFailed, errors.New("bad sheet")))

		w := httptest.NewRecorder()
		dashboardRouter(nil, export).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/export", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to export dashboard", decodeBody(t, w)["detail"])
	})
}
