package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "agilboard/internal/errors"
	"agilboard/internal/infrastructure"
	"agilboard/internal/notification"
	"agilboard/internal/services"
	"agilboard/internal/upstream"
)

func quietLogger() *slog.Logger {
	return infrastructure.NewLogger(io.Discard, nil)
}

func newErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(quietLogger(), false)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func usersDown() error {
	return &upstream.UnavailableError{Service: "user service", Call: "GET /users", StatusCode: 503}
}

// MockProblemService is a mock implementation of ProblemServiceInterface
type MockProblemService struct {
	mock.Mock
}

func (m *MockProblemService) GetAllProblems(ctx context.Context) ([]services.FlatProblem, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.FlatProblem), args.Error(1)
}

func (m *MockProblemService) GetProblem(ctx context.Context, id string) (*services.FlatProblem, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.FlatProblem), args.Error(1)
}

func (m *MockProblemService) AssignProblem(ctx context.Context, id string, technicianID *upstream.ID) (*upstream.Relay, error) {
	args := m.Called(id, technicianID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.Relay), args.Error(1)
}

func (m *MockProblemService) UpdateStatus(ctx context.Context, id, status string) (*upstream.Relay, error) {
	args := m.Called(id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.Relay), args.Error(1)
}

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) GetDashboardData(ctx context.Context) (*services.DashboardData, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardData), args.Error(1)
}

// MockExportService is a mock implementation of ExportServiceInterface
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportDashboard(ctx context.Context) (*excelize.File, string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*excelize.File), args.String(1), args.Error(2)
}

// MockNotificationService is a mock implementation of NotificationServiceInterface
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendEmail(ctx context.Context, to, subject, html string) (*notification.DeliveryReceipt, error) {
	args := m.Called(to, subject, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.DeliveryReceipt), args.Error(1)
}

func (m *MockNotificationService) NotifyEmail(ctx context.Context, to, subject, body string) (*notification.DeliveryReceipt, error) {
	args := m.Called(to, subject, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.DeliveryReceipt), args.Error(1)
}

// MockHealthService is a mock implementation of HealthServiceInterface
type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}
