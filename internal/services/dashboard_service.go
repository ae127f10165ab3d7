package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"agilboard/internal/infrastructure"
	"agilboard/internal/upstream"
)

// DashboardData is the /api/dashboard payload.
type DashboardData struct {
	UserStats    UserStats    `json:"user_stats"`
	ProblemStats ProblemStats `json:"problem_stats"`
	SystemStatus SystemStatus `json:"system_status"`
}

// SystemStatus flags whether each source returned at least one record. They are not liveness
// checks; /health probes the services directly.
type SystemStatus struct {
	UserService          bool `json:"user_service"`
	ProblemService       bool `json:"problem_service"`
	NotificationService  bool `json:"notification_service"`
	AvailableTechnicians bool `json:"available_technicians"`
}

// DashboardService builds dashboard snapshots.
type DashboardService struct {
	upstream UpstreamClient
	logger   *slog.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(client UpstreamClient, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		upstream: client,
		logger:   infrastructure.WithComponent(logger, "dashboard_service"),
	}
}

// GetDashboardData fetches all five sources concurrently and rolls them up. Only the user
// service is required.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	var (
		users       []upstream.User
		problems    []upstream.Problem
		technicians []upstream.User
		stats       map[string]int
		recent      []json.RawMessage
	)

	err := fanout(ctx, s.logger,
		fanoutCall{
			name:     "users",
			required: true,
			run: func(ctx context.Context) (err error) {
				users, err = s.upstream.FetchUsers(ctx)
				return err
			},
		},
		fanoutCall{
			name: "problems",
			run: func(ctx context.Context) (err error) {
				problems, err = s.upstream.FetchProblems(ctx)
				return err
			},
			fallback: func() { problems = nil },
		},
		fanoutCall{
			name: "available_technicians",
			run: func(ctx context.Context) (err error) {
				technicians, err = s.upstream.FetchAvailableTechnicians(ctx)
				return err
			},
			fallback: func() { technicians = nil },
		},
		fanoutCall{
			name: "problem_stats",
			run: func(ctx context.Context) (err error) {
				stats, err = s.upstream.FetchProblemStats(ctx)
				return err
			},
			fallback: func() { stats = map[string]int{} },
		},
		fanoutCall{
			name: "recent_problems",
			run: func(ctx context.Context) (err error) {
				recent, err = s.upstream.FetchRecentProblems(ctx)
				return err
			},
			fallback: func() { recent = []json.RawMessage{} },
		},
	)
	if err != nil {
		return nil, err
	}

	data := &DashboardData{
		UserStats:    computeUserStats(users),
		ProblemStats: computeProblemStats(problems, recent, stats),
		SystemStatus: SystemStatus{
			UserService:          len(users) > 0,
			ProblemService:       len(problems) > 0,
			NotificationService:  true,
			AvailableTechnicians: len(technicians) > 0,
		},
	}

	s.logger.DebugContext(ctx, "dashboard computed",
		slog.Int("users", data.UserStats.TotalUsers),
		slog.Int("problems", data.ProblemStats.TotalProblems),
	)
	return data, nil
}
