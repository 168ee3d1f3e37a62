package services

import (
	"context"
	"time"

	"medcamp-backend/internal/models"
	"medcamp-backend/internal/repository"
)

// CampStore is the camp side of the data service.
type CampStore interface {
	ListApproved(ctx context.Context) ([]models.Camp, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]models.Camp, error)
	ListApprovedBefore(ctx context.Context, day time.Time) ([]models.Camp, error)
	GetByID(ctx context.Context, id string) (*models.Camp, error)
	Create(ctx context.Context, camp *models.Camp) error
	Transition(ctx context.Context, id string, from, to models.CampStatus, actorID, reason *string) error
}

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetDoctorByUserID(ctx context.Context, userID string) (*models.DoctorProfile, error)
	GetUserIDByDoctorID(ctx context.Context, doctorID string) (string, error)
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// RegistrationStore must make CreateIfAbsent a single conditional write keyed
// by (camp, user).
type RegistrationStore interface {
	CreateIfAbsent(ctx context.Context, reg *models.Registration, enforceCapacity bool) error
	Cancel(ctx context.Context, campID, userID string) (*models.Registration, error)
	GetByID(ctx context.Context, id string) (*models.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]models.RegistrationView, error)
	ListByCamp(ctx context.Context, campID string) ([]models.RegistrationView, error)
	CompletePayment(ctx context.Context, payment *models.Payment) error
	StatsByDoctor(ctx context.Context, doctorID string) (int, float64, error)
}

type AccountStore interface {
	CreateAccount(ctx context.Context, user *models.User, profile *models.Profile, doctor *models.DoctorProfile) error
	GetByEmail(ctx context.Context, email string) (*models.User, models.UserType, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// Translator renders user-facing messages for a locale.
type Translator interface {
	T(locale, key string, data map[string]any) string
}

// DirectoryRefresher asks the camp directory to re-sync. Implementations must
// not block the caller.
type DirectoryRefresher interface {
	RequestRefresh(ctx context.Context)
}

var (
	_ CampStore         = (*repository.CampRepository)(nil)
	_ ProfileStore      = (*repository.ProfileRepository)(nil)
	_ RegistrationStore = (*repository.RegistrationRepository)(nil)
	_ AccountStore      = (*repository.UserRepository)(nil)
	_ NotificationStore = (*repository.NotificationRepository)(nil)
)
