package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"medcamp-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsWriteTimeout = 10 * time.Second

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp,omitempty"`
	Message   string         `json:"message,omitempty"`
	Notice    *models.Notice `json:"notice,omitempty"`
}

// wsConn is the part of *websocket.Conn the hub writes through.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type wsClient struct {
	writeMu sync.Mutex
	conn    wsConn
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections and delivers notices to connected users.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
	}
}

// Register registers a new WebSocket connection for a user, replacing any
// previous one. The returned release func drops this connection only, so a
// replaced session's cleanup cannot tear down its successor.
func (h *WSHub) Register(userID string, conn *websocket.Conn) (release func()) {
	client := h.register(userID, conn)
	return func() { h.unregisterClient(userID, client) }
}

func (h *WSHub) register(userID string, conn wsConn) *wsClient {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	}

	client := &wsClient{conn: conn}
	h.connections[userID] = client

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
	return client
}

// unregisterClient drops client only if it is still the user's connection.
func (h *WSHub) unregisterClient(userID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.connections[userID]; exists && current == client {
		client.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection dropped")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.unregisterClient(userID, client)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Broadcast sends a message to every connected user.
func (h *WSHub) Broadcast(message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal broadcast message")
		return
	}

	h.mu.RLock()
	clients := make(map[string]*wsClient, len(h.connections))
	for userID, client := range h.connections {
		clients[userID] = client
	}
	h.mu.RUnlock()

	for userID, client := range clients {
		if err := client.write(data); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to deliver broadcast")
			h.unregisterClient(userID, client)
		}
	}
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// Notify pushes the notice to the user's live connection, or to everyone
// when userID is empty. Offline users are skipped.
func (h *WSHub) Notify(_ context.Context, userID string, notice models.Notice) {
	message := WSMessage{
		Type:      "notification",
		Timestamp: time.Now().UnixMilli(),
		Notice:    &notice,
	}
	if userID == "" {
		h.Broadcast(message)
		return
	}
	if !h.IsOnline(userID) {
		return
	}
	if err := h.SendToUser(userID, message); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to deliver notification")
	}
}
