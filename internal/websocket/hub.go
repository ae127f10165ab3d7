package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"agilboard/internal/infrastructure"
)

// Message types sent to stream clients
const (
	TypeConnection = "connection"
	TypeDashboard  = "dashboard"
	TypeError      = "error"
)

// Message is the envelope of every frame the server sends.
type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages for every client
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	quit    chan struct{}
	running bool
	now     func() time.Time
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    metrics,
		quit:       make(chan struct{}),
		now:        time.Now,
	}
}

// Start runs the hub loop in a goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.running {
				close(client.send)
				h.mu.Unlock()
				continue
			}
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.RecordStreamClients(ctx, 1)
			h.logger.InfoContext(ctx, "client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			msg, err := h.encode(TypeConnection, map[string]string{
				"status":    "connected",
				"message":   "Connected to dashboard stream",
				"client_id": client.id,
			})
			if err != nil {
				continue
			}
			select {
			case client.send <- msg:
			default:
				h.logger.WarnContext(ctx, "connection message dropped, client buffer full",
					slog.String("client_id", client.id))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				ctx := client.context()
				h.metrics.RecordStreamClients(ctx, -1)
				h.logger.InfoContext(ctx, "client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// fanOut queues message on every client. Clients whose buffer is full are dropped.
func (h *Hub) fanOut(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
			dropped++
			h.metrics.RecordStreamClients(context.Background(), -1)
			h.logger.Warn("client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.logger.Debug("broadcast delivered",
		slog.Int("client_count", len(h.clients)),
		slog.Int("dropped", dropped),
		slog.Int("message_size", len(message)))
}

func (h *Hub) encode(msgType string, data any) ([]byte, error) {
	payload, err := json.Marshal(Message{
		Type:      msgType,
		Data:      data,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("failed to marshal stream message",
			slog.String("type", msgType),
			slog.String("error", err.Error()))
	}
	return payload, err
}

// Broadcast sends a typed message to every connected client. It returns immediately once the
// hub has stopped.
func (h *Hub) Broadcast(ctx context.Context, msgType string, data any) {
	payload, err := h.encode(msgType, data)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- payload:
		h.metrics.RecordStreamBroadcast(ctx, msgType)
	case <-h.quit:
	case <-ctx.Done():
	}
}

// Register adds a client to the hub. The hub must have been started.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop ends the hub loop and closes every client's send channel, which makes the write pumps
// send a close frame.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	close(h.quit)

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		h.metrics.RecordStreamClients(context.Background(), -1)
	}
}
