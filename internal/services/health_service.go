package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"agilboard/internal/infrastructure"
)

// Overall health states
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string          `json:"status"`
	Services  map[string]bool `json:"services"`
	Timestamp string          `json:"timestamp"`
	Error     string          `json:"error,omitempty"`
}

// Healthy reports whether every service is up.
func (h HealthStatus) Healthy() bool {
	return h.Status == HealthHealthy
}

// HealthService probes the upstream services
type HealthService struct {
	prober Prober
	logger *slog.Logger
	now    func() time.Time
}

// NewHealthService creates a new health service
func NewHealthService(prober Prober, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		prober: prober,
		logger: infrastructure.WithComponent(logger, "health_service"),
		now:    time.Now,
	}
}

// HealthCheck probes both services concurrently. It never fails: a probe that could not even
// be attempted turns the status to unhealthy and is reported in Error.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	var (
		g                     errgroup.Group
		usersUp, problemsUp   bool
		usersErr, problemsErr error
	)
	g.Go(func() error {
		usersUp, usersErr = hs.prober.ProbeUsers(ctx)
		return nil
	})
	g.Go(func() error {
		problemsUp, problemsErr = hs.prober.ProbeProblems(ctx)
		return nil
	})
	_ = g.Wait()

	status := HealthStatus{
		Services: map[string]bool{
			"user_service":         usersUp,
			"problem_service":      problemsUp,
			"notification_service": true,
		},
		Timestamp: hs.now().Format(time.RFC3339Nano),
	}

	if err := errors.Join(usersErr, problemsErr); err != nil {
		status.Status = HealthUnhealthy
		status.Error = err.Error()
		hs.logger.ErrorContext(ctx, "health check failed", slog.String("error", err.Error()))
		return status
	}

	status.Status = HealthHealthy
	for name, up := range status.Services {
		if !up {
			status.Status = HealthDegraded
			hs.logger.WarnContext(ctx, "service down", slog.String("service", name))
		}
	}
	return status
}
