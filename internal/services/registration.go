package services

import (
	"context"
	"errors"
	"time"

	"medcamp-backend/internal/i18n"
	"medcamp-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RegistrationService registers users for camps. Each (camp, user) pair holds
// at most one active registration; the store enforces it with a conditional
// insert so concurrent attempts cannot both succeed.
type RegistrationService struct {
	registrations   RegistrationStore
	profiles        ProfileStore
	camps           CampStore
	directory       DirectoryRefresher
	notifier        Notifier
	translator      Translator
	enforceCapacity bool
	now             func() time.Time
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	registrations RegistrationStore,
	profiles ProfileStore,
	camps CampStore,
	directory DirectoryRefresher,
	notifier Notifier,
	translator Translator,
	enforceCapacity bool,
) *RegistrationService {
	return &RegistrationService{
		registrations:   registrations,
		profiles:        profiles,
		camps:           camps,
		directory:       directory,
		notifier:        notifier,
		translator:      translator,
		enforceCapacity: enforceCapacity,
		now:             time.Now,
	}
}

// Register signs the caller up for campID. A nil identity fails with
// ErrAuthRequired before anything is read or written. Free camps are confirmed
// immediately; paid camps stay pending until payment is captured.
//
// The returned result is never nil: on failure it carries Success=false next
// to the error.
func (s *RegistrationService) Register(ctx context.Context, identity *models.Identity, campID string) (*models.RegistrationResult, error) {
	failed := &models.RegistrationResult{Success: false}
	if identity == nil {
		return failed, models.ErrAuthRequired
	}

	profile, err := s.profiles.GetByUserID(ctx, identity.UserID)
	if err != nil {
		return failed, s.fail(ctx, identity, nil, models.Remote("get profile", err))
	}

	camp, err := s.camps.GetByID(ctx, campID)
	if err != nil {
		return failed, s.fail(ctx, identity, nil, models.Remote("get camp", err))
	}
	if camp.Status != models.CampStatusApproved {
		return failed, s.fail(ctx, identity, camp, models.ErrCampNotOpen)
	}

	paymentStatus := models.PaymentStatusPending
	if camp.CampType == models.CampTypeFree {
		paymentStatus = models.PaymentStatusCompleted
	}
	reg := &models.Registration{
		ID:               uuid.New().String(),
		CampID:           camp.ID,
		UserID:           identity.UserID,
		ProfileID:        profile.ID,
		AmountPaid:       camp.Price,
		PaymentStatus:    paymentStatus,
		AttendanceStatus: models.AttendanceRegistered,
		RegistrationDate: s.now(),
	}
	if err := s.registrations.CreateIfAbsent(ctx, reg, s.enforceCapacity); err != nil {
		return failed, s.fail(ctx, identity, camp, models.Remote("create registration", err))
	}

	log.Info().
		Str("user_id", identity.UserID).
		Str("camp_id", camp.ID).
		Str("registration_id", reg.ID).
		Str("payment_status", string(reg.PaymentStatus)).
		Msg("Camp registration created")

	locale := i18n.LocaleFromContext(ctx)
	descriptionKey := "registration.success.free"
	if camp.CampType == models.CampTypePaid {
		descriptionKey = "registration.success.paid"
	}
	s.notifier.Notify(ctx, identity.UserID, models.Notice{
		Title:    s.translator.T(locale, "registration.success.title", nil),
		Message:  s.translator.T(locale, descriptionKey, nil),
		Severity: models.SeverityNormal,
		CampID:   &camp.ID,
	})
	s.notifyOrganizer(ctx, camp, profile)
	s.directory.RequestRefresh(ctx)

	return &models.RegistrationResult{
		Success:         true,
		RegistrationID:  reg.ID,
		RequiresPayment: camp.CampType == models.CampTypePaid,
		Amount:          camp.Price,
	}, nil
}

// fail surfaces err to the user as a destructive notice and returns it.
func (s *RegistrationService) fail(ctx context.Context, identity *models.Identity, camp *models.Camp, err error) error {
	locale := i18n.LocaleFromContext(ctx)
	notice := models.Notice{Severity: models.SeverityDestructive}
	if camp != nil {
		notice.CampID = &camp.ID
	}

	switch {
	case errors.Is(err, models.ErrAlreadyRegistered):
		notice.Title = s.translator.T(locale, "registration.already_registered.title", nil)
		notice.Message = s.translator.T(locale, "registration.already_registered.message", nil)
	case errors.Is(err, models.ErrCampFull):
		notice.Title = s.translator.T(locale, "registration.camp_full.title", nil)
		notice.Message = s.translator.T(locale, "registration.camp_full.message", map[string]any{"Title": camp.Title})
	default:
		notice.Title = s.translator.T(locale, "registration.failed.title", nil)
		notice.Message = s.translator.T(locale, "registration.failed.message", nil) + " " + err.Error()
	}

	logEvent := log.Warn()
	var re *models.RemoteError
	if errors.As(err, &re) {
		logEvent = log.Error()
	}
	logEvent.Err(err).Str("user_id", identity.UserID).Msg("Camp registration failed")

	s.notifier.Notify(ctx, identity.UserID, notice)
	return err
}

// notifyOrganizer tells the owning doctor about a new registrant. Lookup
// failures only cost the notice.
func (s *RegistrationService) notifyOrganizer(ctx context.Context, camp *models.Camp, registrant *models.Profile) {
	doctorUserID, err := s.profiles.GetUserIDByDoctorID(ctx, camp.DoctorID)
	if err != nil {
		log.Warn().Err(err).Str("camp_id", camp.ID).Msg("Failed to resolve camp organizer")
		return
	}
	locale := i18n.LocaleFromContext(ctx)
	s.notifier.Notify(ctx, doctorUserID, models.Notice{
		Title: s.translator.T(locale, "camp.new_registration.title", nil),
		Message: s.translator.T(locale, "camp.new_registration.message", map[string]any{
			"Name":  registrant.FullName,
			"Title": camp.Title,
		}),
		Severity: models.SeverityNormal,
		CampID:   &camp.ID,
	})
}

// Cancel withdraws the caller's registration for campID and frees its seat.
func (s *RegistrationService) Cancel(ctx context.Context, identity *models.Identity, campID string) (*models.Registration, error) {
	if identity == nil {
		return nil, models.ErrAuthRequired
	}
	camp, err := s.camps.GetByID(ctx, campID)
	if err != nil {
		return nil, models.Remote("get camp", err)
	}
	reg, err := s.registrations.Cancel(ctx, campID, identity.UserID)
	if err != nil {
		return nil, models.Remote("cancel registration", err)
	}

	log.Info().
		Str("user_id", identity.UserID).
		Str("camp_id", campID).
		Str("registration_id", reg.ID).
		Msg("Camp registration cancelled")

	locale := i18n.LocaleFromContext(ctx)
	s.notifier.Notify(ctx, identity.UserID, models.Notice{
		Title:    s.translator.T(locale, "registration.cancelled.title", nil),
		Message:  s.translator.T(locale, "registration.cancelled.message", map[string]any{"Title": camp.Title}),
		Severity: models.SeverityNormal,
		CampID:   &camp.ID,
	})
	s.directory.RequestRefresh(ctx)
	return reg, nil
}

// ListMine returns the caller's registrations, newest first.
func (s *RegistrationService) ListMine(ctx context.Context, identity *models.Identity) ([]models.RegistrationView, error) {
	if identity == nil {
		return nil, models.ErrAuthRequired
	}
	regs, err := s.registrations.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, models.Remote("list registrations", err)
	}
	return regs, nil
}
