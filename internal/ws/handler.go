// Package ws pushes scan lifecycle events to browser clients over WebSocket.
package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/cybershield/cybershield/internal/auth"
	"github.com/cybershield/cybershield/internal/netscan"
	"github.com/cybershield/cybershield/pkg/plugin"
	"go.uber.org/zap"
)

// topicMessages maps bus topics to WebSocket message types.
var topicMessages = map[string]MessageType{
	netscan.TopicScanStarted:   MessageScanStarted,
	netscan.TopicScanProgress:  MessageScanProgress,
	netscan.TopicScanCompleted: MessageScanCompleted,
	netscan.TopicScanFailed:    MessageScanFailed,
	netscan.TopicDeviceFound:   MessageDeviceFound,
}

// Handler upgrades client connections and relays scan events from the bus.
type Handler struct {
	hub    *Hub
	tokens *auth.TokenService
	bus    plugin.EventBus
	logger *zap.Logger
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes to scan events.
func NewHandler(tokens *auth.TokenService, bus plugin.EventBus, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		tokens: tokens,
		bus:    bus,
		logger: logger,
	}
	h.subscribeToEvents()
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws", h.handleStream)
}

// handleStream upgrades the connection to WebSocket and streams scan events.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	// The browser WebSocket API cannot set headers, so the access token
	// arrives as a query parameter.
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token parameter", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Any origin is allowed; the JWT gates access.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		userID: claims.UserID,
		send:   make(chan Message, 256),
		logger: h.logger,
	}

	h.hub.Register(client)

	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until the client disconnects.
	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// subscribeToEvents forwards scan lifecycle events from the bus to all
// connected clients.
func (h *Handler) subscribeToEvents() {
	if h.bus == nil {
		return
	}

	for topic, msgType := range topicMessages {
		msgType := msgType
		h.bus.Subscribe(topic, func(_ context.Context, event plugin.Event) {
			h.hub.Broadcast(Message{
				Type:    msgType,
				Payload: event.Payload,
				TS:      event.Timestamp,
			})
		})
	}

	h.logger.Info("subscribed to scan events for websocket broadcasting")
}
