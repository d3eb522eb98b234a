package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todoapi-example/internal/model"
)

// WebSocket configuration constants.
const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 512
	eventBufferSize = 16
)

// wsClient tracks one connected WebSocket subscriber.
type wsClient struct {
	events chan model.TodoEvent
	cancel context.CancelFunc
}

// WebSocketHandler streams todo change events to WebSocket subscribers.
// It implements service.EventSink.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger
	mu       sync.RWMutex
	clients  map[*websocket.Conn]*wsClient
}

// NewWebSocketHandler creates a new WebSocketHandler instance.
func NewWebSocketHandler(logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]*wsClient),
	}
}

// RegisterRoutes registers the WebSocket routes with the router.
func (h *WebSocketHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws/todos", h.HandleWebSocket).Methods(http.MethodGet)
}

// Publish fans a change event out to all connected subscribers. Slow
// subscribers whose buffers are full miss the event rather than blocking
// the mutating request.
func (h *WebSocketHandler) Publish(event model.TodoEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn, cl := range h.clients {
		select {
		case cl.events <- event:
		default:
			h.logger.Debug("dropping event for slow subscriber",
				zap.String("remote_addr", conn.RemoteAddr().String()),
				zap.String("type", string(event.Type)),
			)
		}
	}
}

// HandleWebSocket handles WebSocket connection requests.
//
//nolint:contextcheck // intentional: WebSocket connections outlive the HTTP request context
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	// Use background context instead of request context because the HTTP
	// request context gets canceled when the handler returns, but
	// WebSocket connections need to persist beyond the initial upgrade.
	ctx, cancel := context.WithCancel(context.Background())

	cl := &wsClient{
		events: make(chan model.TodoEvent, eventBufferSize),
		cancel: cancel,
	}

	h.mu.Lock()
	h.clients[conn] = cl
	h.mu.Unlock()

	h.logger.Info("websocket subscriber connected",
		zap.String("remote_addr", conn.RemoteAddr().String()),
	)

	go h.writePump(ctx, conn, cl)
	go h.readPump(ctx, conn, cancel)
}

// readPump handles incoming messages from the WebSocket connection. The
// feed is one-way; inbound messages only keep the connection alive.
func (h *WebSocketHandler) readPump(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer func() {
		cancel()
		h.removeClient(conn)
		if err := conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("failed to set read deadline", zap.Error(err))
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn("websocket read error", zap.Error(err))
				}
				return
			}
			h.logger.Debug("received message", zap.ByteString("message", message))
		}
	}
}

// writePump forwards change events to the WebSocket connection and keeps
// it alive with periodic pings.
func (h *WebSocketHandler) writePump(ctx context.Context, conn *websocket.Conn, cl *wsClient) {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.sendCloseMessage(conn)
			return
		case event := <-cl.events:
			if err := h.sendEvent(conn, event); err != nil {
				h.logger.Debug("failed to send event", zap.Error(err))
				return
			}
		case <-pingTicker.C:
			if err := h.sendPing(conn); err != nil {
				h.logger.Debug("failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// sendEvent sends a change event message to the connection.
func (h *WebSocketHandler) sendEvent(conn *websocket.Conn, event model.TodoEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

// sendPing sends a ping message to the connection.
func (h *WebSocketHandler) sendPing(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// sendCloseMessage sends a close message to the connection.
func (h *WebSocketHandler) sendCloseMessage(conn *websocket.Conn) {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		h.logger.Debug("failed to set write deadline for close", zap.Error(err))
		return
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down")
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		h.logger.Debug("failed to send close message", zap.Error(err))
	}
}

// removeClient removes a client from the clients map.
func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cl, exists := h.clients[conn]; exists {
		cl.cancel()
		delete(h.clients, conn)
		h.logger.Info("websocket subscriber disconnected",
			zap.String("remote_addr", conn.RemoteAddr().String()),
		)
	}
}

// CloseAllConnections closes all active WebSocket connections.
func (h *WebSocketHandler) CloseAllConnections() {
	h.mu.Lock()
	// Copy the clients map to avoid holding the lock while closing
	clients := make(map[*websocket.Conn]*wsClient, len(h.clients))
	for conn, cl := range h.clients {
		clients[conn] = cl
	}
	h.mu.Unlock()

	// Cancel all contexts first - this will trigger writePump to send close messages
	for _, cl := range clients {
		cl.cancel()
	}

	// Give writePump goroutines time to send close messages
	time.Sleep(100 * time.Millisecond)

	// Now close all connections
	h.mu.Lock()
	for conn := range h.clients {
		if err := conn.Close(); err != nil {
			h.logger.Debug("error closing connection", zap.Error(err))
		}
		delete(h.clients, conn)
	}
	h.mu.Unlock()

	h.logger.Info("all websocket connections closed")
}
