package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"agilboard/internal/config"
	apierrors "agilboard/internal/errors"
	customMiddleware "agilboard/internal/middleware"
	ws "agilboard/internal/websocket"
)

// WebSocketHandler upgrades /ws/dashboard requests and hands the connection to the hub.
type WebSocketHandler struct {
	hub          *ws.Hub
	upgrader     *websocket.Upgrader
	stream       config.StreamConfig
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(hub *ws.Hub, stream config.StreamConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:          hub,
		upgrader:     ws.NewUpgrader(stream),
		stream:       stream,
		logger:       logger.With(slog.String("component", "websocket_handler")),
		errorHandler: errorHandler,
	}
	h.upgrader.Error = h.upgradeError
	return h
}

// ServeHTTP handles GET /ws/dashboard
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered through upgradeError
		return
	}

	reqID := customMiddleware.GetRequestID(r.Context())
	client := ws.NewClient(h.hub, ws.NewConnectionWrapper(conn), h.stream, reqID, h.logger)
	client.Serve()

	h.logger.InfoContext(r.Context(), "dashboard stream client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr),
	)
}

func (h *WebSocketHandler) upgradeError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	h.logger.WarnContext(r.Context(), "websocket upgrade rejected",
		slog.Int("status", status),
		slog.String("reason", reason.Error()),
		slog.String("origin", r.Header.Get("Origin")),
	)
	h.errorHandler.HandleError(w, r, apierrors.WebSocketUpgradeError(status, reason))
}
