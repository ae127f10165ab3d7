package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"agilboard/internal/infrastructure"
	"agilboard/internal/upstream"
)

const (
	defaultProblemID = "unknown"
	defaultPriority  = "normal"
)

var emptyCreatedAt = json.RawMessage(`""`)

// FlatProblem is a problem with its user references replaced by display names.
type FlatProblem struct {
	ID                 upstream.ID     `json:"id"`
	Description        string          `json:"description"`
	Type               string          `json:"type"`
	Status             string          `json:"status"`
	CreatedAt          json.RawMessage `json:"createdAt"`
	AssignedTechnician string          `json:"assignedTechnician"`
	Priority           string          `json:"priority"`
	ChefID             string          `json:"chefId"`
}

// ProblemService joins problems with the user directory.
type ProblemService struct {
	upstream UpstreamClient
	logger   *slog.Logger
}

// NewProblemService creates a new problem service
func NewProblemService(client UpstreamClient, logger *slog.Logger) *ProblemService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProblemService{
		upstream: client,
		logger:   infrastructure.WithComponent(logger, "problem_service"),
	}
}

// GetAllProblems returns every problem flattened, in upstream order. The user service is
// required; a failing problem service yields an empty list.
func (s *ProblemService) GetAllProblems(ctx context.Context) ([]FlatProblem, error) {
	var (
		users    []upstream.User
		problems []upstream.Problem
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
	)
	if err != nil {
		return nil, err
	}

	index := NewUserIndex(users)
	flat := lo.Map(problems, func(p upstream.Problem, _ int) FlatProblem {
		return flattenProblem(p, index)
	})

	s.logger.DebugContext(ctx, "problems joined",
		slog.Int("problems", len(flat)),
		slog.Int("users", len(index)),
	)
	return flat, nil
}

// GetProblem returns one flattened problem. Both services are required here; a missing
// problem yields upstream.ErrNotFound.
func (s *ProblemService) GetProblem(ctx context.Context, id string) (*FlatProblem, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty problem id", ErrInvalidInput)
	}

	var (
		users   []upstream.User
		problem *upstream.Problem
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
			name:     "problem",
			required: true,
			run: func(ctx context.Context) (err error) {
				problem, err = s.upstream.GetProblem(ctx, id)
				return err
			},
		},
	)
	if err != nil {
		return nil, err
	}

	flat := flattenProblem(*problem, NewUserIndex(users))
	return &flat, nil
}

// AssignProblem forwards an assignment. A nil technician unassigns the problem.
func (s *ProblemService) AssignProblem(ctx context.Context, id string, technicianID *upstream.ID) (*upstream.Relay, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty problem id", ErrInvalidInput)
	}

	relay, err := s.upstream.AssignProblem(ctx, id, upstream.AssignRequest{TechnicianID: technicianID})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "problem assigned",
		slog.String("problem_id", id),
		slog.String("technician_id", technicianKey(technicianID)),
		slog.Int("upstream_status", relay.StatusCode),
	)
	return relay, nil
}

// UpdateStatus moves a problem to one of KnownStatuses.
func (s *ProblemService) UpdateStatus(ctx context.Context, id, status string) (*upstream.Relay, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty problem id", ErrInvalidInput)
	}
	if !IsKnownStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	relay, err := s.upstream.UpdateProblemStatus(ctx, id, upstream.StatusRequest{Status: status})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "problem status updated",
		slog.String("problem_id", id),
		slog.String("status", status),
		slog.Int("upstream_status", relay.StatusCode),
	)
	return relay, nil
}

// flattenProblem resolves user references through users and fills defaults for absent fields.
func flattenProblem(p upstream.Problem, users UserIndex) FlatProblem {
	id := upstream.NewID(defaultProblemID)
	if p.ID != nil {
		id = *p.ID
	}

	createdAt := p.CreatedAt
	if len(createdAt) == 0 || string(createdAt) == "null" {
		createdAt = emptyCreatedAt
	}

	return FlatProblem{
		ID:                 id,
		Description:        lo.FromPtr(p.Description),
		Type:               lo.FromPtrOr(p.Type, unknownValue),
		Status:             lo.FromPtrOr(p.Status, StatusUnknown),
		CreatedAt:          createdAt,
		AssignedTechnician: users.Resolve(p.AssignedTechnician, unassignedName),
		Priority:           lo.FromPtrOr(p.Priority, defaultPriority),
		ChefID:             users.Resolve(p.ChefID, unknownChefName),
	}
}

func technicianKey(id *upstream.ID) string {
	if id == nil {
		return ""
	}
	return id.Key()
}
