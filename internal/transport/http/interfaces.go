package http

import (
	"context"

	"github.com/xuri/excelize/v2"

	"agilboard/internal/notification"
	"agilboard/internal/services"
	"agilboard/internal/upstream"
)

// ProblemServiceInterface defines the problem operations the handlers need
type ProblemServiceInterface interface {
	GetAllProblems(ctx context.Context) ([]services.FlatProblem, error)
	GetProblem(ctx context.Context, id string) (*services.FlatProblem, error)
	AssignProblem(ctx context.Context, id string, technicianID *upstream.ID) (*upstream.Relay, error)
	UpdateStatus(ctx context.Context, id, status string) (*upstream.Relay, error)
}

// DashboardServiceInterface defines the dashboard operations the handlers need
type DashboardServiceInterface interface {
	GetDashboardData(ctx context.Context) (*services.DashboardData, error)
}

// ExportServiceInterface renders the dashboard as a workbook
type ExportServiceInterface interface {
	ExportDashboard(ctx context.Context) (*excelize.File, string, error)
}

// NotificationServiceInterface sends outbound email
type NotificationServiceInterface interface {
	SendEmail(ctx context.Context, to, subject, html string) (*notification.DeliveryReceipt, error)
	NotifyEmail(ctx context.Context, to, subject, body string) (*notification.DeliveryReceipt, error)
}

// HealthServiceInterface aggregates upstream liveness
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
}

var (
	_ ProblemServiceInterface      = (*services.ProblemService)(nil)
	_ DashboardServiceInterface    = (*services.DashboardService)(nil)
	_ ExportServiceInterface       = (*services.ExportService)(nil)
	_ NotificationServiceInterface = (*services.NotificationService)(nil)
	_ HealthServiceInterface       = (*services.HealthService)(nil)
)
