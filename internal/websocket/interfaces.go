package websocket

import (
	"context"
	"time"

	"agilboard/internal/services"
)

// Connection is the part of a gorilla connection the pumps use.
// Tests substitute an in-memory implementation.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error

	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)

	// RemoteAddr returns the remote network address
	RemoteAddr() string
}

// DashboardSource produces the snapshots the poller broadcasts.
type DashboardSource interface {
	GetDashboardData(ctx context.Context) (*services.DashboardData, error)
}

var _ DashboardSource = (*services.DashboardService)(nil)
