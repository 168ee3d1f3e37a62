package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"medcamp-backend/internal/middleware"
	"medcamp-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// PushTokenStore saves the APNs device token a client registers.
type PushTokenStore interface {
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub       *services.WSHub
	validator middleware.TokenValidator
	profiles  PushTokenStore
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	validator middleware.TokenValidator,
	profiles PushTokenStore,
	allowedOrigins []string,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		validator: validator,
		profiles:  profiles,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.validator)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}
	userID := identity.UserID

	// Upgrade connection
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	release := h.hub.Register(userID, conn)
	defer release()

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	ctx := r.Context()
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.reply(userID, "error", "Invalid message format")
			continue
		}

		h.handleMessage(ctx, userID, msg)
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg services.WSMessage) {
	switch msg.Type {
	case "ping":
		h.reply(userID, "pong", "")
	case "register_push_token":
		token := strings.TrimSpace(msg.Message)
		var pushToken *string
		if token != "" {
			pushToken = &token
		}
		if err := h.profiles.UpdatePushToken(ctx, userID, pushToken); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to save push token")
			h.reply(userID, "error", "Failed to save push token")
			return
		}
		h.reply(userID, "push_token_registered", "")
	default:
		h.reply(userID, "error", "Unknown message type")
	}
}

func (h *WebSocketHandler) reply(userID, msgType, message string) {
	err := h.hub.SendToUser(userID, services.WSMessage{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Message:   message,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("type", msgType).Msg("Failed to reply on WebSocket")
	}
}
