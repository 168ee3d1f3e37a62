package handlers

import (
	"context"
	"net/http"
	"strconv"

	"medcamp-backend/internal/middleware"
	"medcamp-backend/internal/models"
	"medcamp-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

type NotificationReader interface {
	List(ctx context.Context, identity *models.Identity, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, identity *models.Identity, id string) error
}

type AvatarUploader interface {
	UploadURL(ctx context.Context, identity *models.Identity, contentType string) (*services.AvatarUpload, error)
}

// AvatarRequest represents the request body for an avatar upload
type AvatarRequest struct {
	ContentType string `json:"content_type"`
}

// MeHandler serves the caller's own notifications and avatar
type MeHandler struct {
	notifications NotificationReader
	avatars       AvatarUploader
}

// NewMeHandler creates a new handler. avatars may be nil when S3 is not configured.
func NewMeHandler(notifications NotificationReader, avatars AvatarUploader) *MeHandler {
	return &MeHandler{
		notifications: notifications,
		avatars:       avatars,
	}
}

// ListNotifications handles GET /api/v1/me/notifications
func (h *MeHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, "limit must be a number", http.StatusBadRequest)
			return
		}
		limit = n
	}

	notifications, err := h.notifications.List(ctx, middleware.GetIdentity(ctx), limit)
	if err != nil {
		respondServiceError(w, err, "Failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

// MarkNotificationRead handles POST /api/v1/me/notifications/{notification_id}/read
func (h *MeHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.notifications.MarkRead(ctx, middleware.GetIdentity(ctx), chi.URLParam(r, "notification_id")); err != nil {
		respondServiceError(w, err, "Failed to mark notification read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadAvatar handles POST /api/v1/me/avatar
func (h *MeHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if h.avatars == nil {
		respondError(w, "Avatar uploads are not configured", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()

	var req AvatarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err, "Invalid avatar request")
		return
	}

	upload, err := h.avatars.UploadURL(ctx, middleware.GetIdentity(ctx), req.ContentType)
	if err != nil {
		respondServiceError(w, err, "Failed to presign avatar upload")
		return
	}

	respondJSON(w, http.StatusOK, upload)
}
