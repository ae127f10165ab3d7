package services

import (
	"context"
	"encoding/json"

	"agilboard/internal/notification"
	"agilboard/internal/upstream"
)

// UpstreamClient is the part of *upstream.Client the aggregation services use.
type UpstreamClient interface {
	FetchUsers(ctx context.Context) ([]upstream.User, error)
	FetchAvailableTechnicians(ctx context.Context) ([]upstream.User, error)
	FetchProblems(ctx context.Context) ([]upstream.Problem, error)
	FetchRecentProblems(ctx context.Context) ([]json.RawMessage, error)
	FetchProblemStats(ctx context.Context) (map[string]int, error)

	GetProblem(ctx context.Context, id string) (*upstream.Problem, error)
	AssignProblem(ctx context.Context, id string, req upstream.AssignRequest) (*upstream.Relay, error)
	UpdateProblemStatus(ctx context.Context, id string, req upstream.StatusRequest) (*upstream.Relay, error)
}

// Prober checks upstream liveness.
type Prober interface {
	ProbeUsers(ctx context.Context) (bool, error)
	ProbeProblems(ctx context.Context) (bool, error)
}

// Mailer delivers one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) (*notification.DeliveryReceipt, error)
}

var (
	_ UpstreamClient = (*upstream.Client)(nil)
	_ Prober         = (*upstream.Client)(nil)
	_ Mailer         = (*notification.Gateway)(nil)
)
