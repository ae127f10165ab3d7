package websocket

import (
	"context"
	"log/slog"
	"time"

	"agilboard/internal/infrastructure"
)

const pollTimeout = 15 * time.Second

// Poller recomputes the dashboard on a fixed interval and pushes it to the hub. Ticks with no
// connected client are skipped so idle servers do not load the upstream services.
type Poller struct {
	hub      *Hub
	source   DashboardSource
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller creates a new dashboard poller
func NewPoller(hub *Hub, source DashboardSource, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Poller{
		hub:      hub,
		source:   source,
		interval: interval,
		logger:   infrastructure.WithComponent(logger, "websocket.poller"),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.hub.ClientCount() == 0 {
				continue
			}
			p.Tick(ctx)
		}
	}
}

// Tick computes one snapshot and broadcasts it, or broadcasts an error message when the
// dashboard cannot be built.
func (p *Poller) Tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(infrastructure.EnsureTraceID(ctx), pollTimeout)
	defer cancel()

	data, err := p.source.GetDashboardData(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "dashboard snapshot failed",
			slog.String("error", err.Error()))
		p.hub.Broadcast(ctx, TypeError, map[string]string{
			"message": "Failed to fetch dashboard data",
		})
		return
	}

	p.hub.Broadcast(ctx, TypeDashboard, data)
}
