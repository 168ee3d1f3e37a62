package services

import (
	"context"
	"time"

	"medcamp-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	notifyTimeout          = 10 * time.Second
	defaultNotificationCap = 50
)

// Notifier surfaces a notice to a user. An empty userID addresses every
// connected user. Notify never fails visibly; sinks log their own errors.
type Notifier interface {
	Notify(ctx context.Context, userID string, notice models.Notice)
}

// MultiNotifier fans a notice out to several sinks in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, userID string, notice models.Notice) {
	for _, n := range m {
		n.Notify(ctx, userID, notice)
	}
}

// AsyncNotifier detaches delivery from the caller so a slow sink never holds up
// the operation that produced the notice.
type AsyncNotifier struct {
	next Notifier
}

func NewAsyncNotifier(next Notifier) *AsyncNotifier {
	return &AsyncNotifier{next: next}
}

func (a *AsyncNotifier) Notify(ctx context.Context, userID string, notice models.Notice) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		a.next.Notify(ctx, userID, notice)
	}()
}

// NotificationService persists notices and serves them back to their owner.
type NotificationService struct {
	store NotificationStore
	now   func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store, now: time.Now}
}

// Notify stores the notice for userID. Broadcast notices are not persisted.
func (s *NotificationService) Notify(ctx context.Context, userID string, notice models.Notice) {
	if userID == "" {
		return
	}
	n := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		CampID:    notice.CampID,
		Title:     notice.Title,
		Message:   notice.Message,
		Type:      notice.Severity,
		CreatedAt: s.now(),
	}
	if n.Type == "" {
		n.Type = models.SeverityNormal
	}
	if err := s.store.Create(ctx, n); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("title", notice.Title).Msg("Failed to store notification")
	}
}

// List returns the caller's latest notifications.
func (s *NotificationService) List(ctx context.Context, identity *models.Identity, limit int) ([]models.Notification, error) {
	if identity == nil {
		return nil, models.ErrAuthRequired
	}
	if limit <= 0 || limit > 100 {
		limit = defaultNotificationCap
	}
	notifications, err := s.store.ListByUser(ctx, identity.UserID, limit)
	if err != nil {
		return nil, models.Remote("list notifications", err)
	}
	return notifications, nil
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, identity *models.Identity, id string) error {
	if identity == nil {
		return models.ErrAuthRequired
	}
	if err := s.store.MarkRead(ctx, id, identity.UserID); err != nil {
		return models.Remote("mark notification read", err)
	}
	return nil
}
