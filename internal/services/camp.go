package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"medcamp-backend/internal/i18n"
	"medcamp-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// CreateCampRequest is the form a doctor submits for a new camp.
type CreateCampRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Specialization string  `json:"specialization"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Location       string  `json:"location"`
	Address        string  `json:"address"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Pincode        string  `json:"pincode"`
	Capacity       int     `json:"capacity"`
	Price          float64 `json:"price"`
	CampType       string  `json:"camp_type"`
}

// CampService covers the doctor and approval-authority side of camps.
type CampService struct {
	camps         CampStore
	profiles      ProfileStore
	registrations RegistrationStore
	directory     DirectoryRefresher
	notifier      Notifier
	translator    Translator
	now           func() time.Time
}

// NewCampService creates a new camp service
func NewCampService(
	camps CampStore,
	profiles ProfileStore,
	registrations RegistrationStore,
	directory DirectoryRefresher,
	notifier Notifier,
	translator Translator,
) *CampService {
	return &CampService{
		camps:         camps,
		profiles:      profiles,
		registrations: registrations,
		directory:     directory,
		notifier:      notifier,
		translator:    translator,
		now:           time.Now,
	}
}

func requireUserType(identity *models.Identity, allowed ...models.UserType) error {
	if identity == nil {
		return models.ErrAuthRequired
	}
	for _, t := range allowed {
		if identity.UserType == t {
			return nil
		}
	}
	return models.ErrForbidden
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{models.ErrValidation}, args...)...)
}

func (r CreateCampRequest) toCamp(today time.Time) (*models.Camp, error) {
	if strings.TrimSpace(r.Title) == "" {
		return nil, validationf("title is required")
	}
	if strings.TrimSpace(r.Specialization) == "" {
		return nil, validationf("specialization is required")
	}
	if strings.TrimSpace(r.Location) == "" {
		return nil, validationf("location is required")
	}
	date, err := time.Parse(time.DateOnly, r.Date)
	if err != nil {
		return nil, validationf("date must be YYYY-MM-DD")
	}
	if date.Before(today) {
		return nil, validationf("date is in the past")
	}
	if !clockPattern.MatchString(r.StartTime) || !clockPattern.MatchString(r.EndTime) {
		return nil, validationf("start_time and end_time must be HH:MM")
	}
	if r.EndTime <= r.StartTime {
		return nil, validationf("end_time must be after start_time")
	}
	if r.Capacity <= 0 {
		return nil, validationf("capacity must be positive")
	}
	if r.Price < 0 {
		return nil, validationf("price cannot be negative")
	}
	campType, err := models.ParseCampType(r.CampType)
	if err != nil {
		return nil, err
	}
	if (campType == models.CampTypeFree) != (r.Price == 0) {
		return nil, validationf("free camps must have price 0 and paid camps a positive price")
	}

	return &models.Camp{
		Title:          strings.TrimSpace(r.Title),
		Description:    strings.TrimSpace(r.Description),
		Specialization: strings.TrimSpace(r.Specialization),
		Date:           date,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Location:       strings.TrimSpace(r.Location),
		Address:        r.Address,
		City:           r.City,
		State:          r.State,
		Pincode:        r.Pincode,
		Capacity:       r.Capacity,
		Price:          r.Price,
		CampType:       campType,
	}, nil
}

// CreateCamp submits a new camp for approval on behalf of the calling doctor.
func (s *CampService) CreateCamp(ctx context.Context, identity *models.Identity, req CreateCampRequest) (*models.Camp, error) {
	if err := requireUserType(identity, models.UserTypeDoctor); err != nil {
		return nil, err
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	camp, err := req.toCamp(today)
	if err != nil {
		return nil, err
	}

	doctor, err := s.profiles.GetDoctorByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, models.Remote("get doctor profile", err)
	}

	camp.ID = uuid.New().String()
	camp.DoctorID = doctor.ID
	camp.Status = models.CampStatusPending
	camp.CreatedAt = now
	if err := s.camps.Create(ctx, camp); err != nil {
		return nil, models.Remote("create camp", err)
	}

	log.Info().
		Str("user_id", identity.UserID).
		Str("camp_id", camp.ID).
		Str("camp_type", string(camp.CampType)).
		Msg("Camp submitted for approval")
	return camp, nil
}

// ListDoctorCamps returns every camp of the calling doctor, any status.
func (s *CampService) ListDoctorCamps(ctx context.Context, identity *models.Identity) ([]models.Camp, error) {
	if err := requireUserType(identity, models.UserTypeDoctor); err != nil {
		return nil, err
	}
	doctor, err := s.profiles.GetDoctorByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, models.Remote("get doctor profile", err)
	}
	camps, err := s.camps.ListByDoctor(ctx, doctor.ID)
	if err != nil {
		return nil, models.Remote("list doctor camps", err)
	}
	return camps, nil
}

// ownedCamp loads campID and checks that the calling doctor runs it. Admins
// may access any camp.
func (s *CampService) ownedCamp(ctx context.Context, identity *models.Identity, campID string) (*models.Camp, error) {
	if err := requireUserType(identity, models.UserTypeDoctor, models.UserTypeAdmin); err != nil {
		return nil, err
	}
	camp, err := s.camps.GetByID(ctx, campID)
	if err != nil {
		return nil, models.Remote("get camp", err)
	}
	if identity.UserType == models.UserTypeAdmin {
		return camp, nil
	}
	doctor, err := s.profiles.GetDoctorByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, models.Remote("get doctor profile", err)
	}
	if camp.DoctorID != doctor.ID {
		return nil, models.ErrForbidden
	}
	return camp, nil
}

// CampRegistrations lists the registrants of a camp the caller owns.
func (s *CampService) CampRegistrations(ctx context.Context, identity *models.Identity, campID string) (*models.Camp, []models.RegistrationView, error) {
	camp, err := s.ownedCamp(ctx, identity, campID)
	if err != nil {
		return nil, nil, err
	}
	regs, err := s.registrations.ListByCamp(ctx, camp.ID)
	if err != nil {
		return nil, nil, models.Remote("list camp registrations", err)
	}
	return camp, regs, nil
}

// Approve publishes a pending camp.
func (s *CampService) Approve(ctx context.Context, identity *models.Identity, campID string) (*models.Camp, error) {
	if err := requireUserType(identity, models.UserTypeAdmin); err != nil {
		return nil, err
	}
	return s.transition(ctx, &identity.UserID, campID, models.CampStatusApproved, nil)
}

// Reject turns a pending camp down with a reason shown to its doctor.
func (s *CampService) Reject(ctx context.Context, identity *models.Identity, campID, reason string) (*models.Camp, error) {
	if err := requireUserType(identity, models.UserTypeAdmin); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf("rejection reason is required")
	}
	return s.transition(ctx, &identity.UserID, campID, models.CampStatusRejected, &reason)
}

// CancelCamp cancels a pending or approved camp. Only its doctor or an admin
// may do so.
func (s *CampService) CancelCamp(ctx context.Context, identity *models.Identity, campID string) (*models.Camp, error) {
	if _, err := s.ownedCamp(ctx, identity, campID); err != nil {
		return nil, err
	}
	return s.transition(ctx, &identity.UserID, campID, models.CampStatusCancelled, nil)
}

// Complete marks an approved camp as held.
func (s *CampService) Complete(ctx context.Context, identity *models.Identity, campID string) (*models.Camp, error) {
	if err := requireUserType(identity, models.UserTypeAdmin); err != nil {
		return nil, err
	}
	return s.transition(ctx, &identity.UserID, campID, models.CampStatusCompleted, nil)
}

// CompletePastCamps marks approved camps dated before today as completed and
// returns how many were moved.
func (s *CampService) CompletePastCamps(ctx context.Context) (int, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	camps, err := s.camps.ListApprovedBefore(ctx, today)
	if err != nil {
		return 0, models.Remote("list past camps", err)
	}

	completed := 0
	for _, camp := range camps {
		if _, err := s.transition(ctx, nil, camp.ID, models.CampStatusCompleted, nil); err != nil {
			log.Warn().Err(err).Str("camp_id", camp.ID).Msg("Failed to complete camp")
			continue
		}
		completed++
	}
	return completed, nil
}

func (s *CampService) transition(ctx context.Context, actorID *string, campID string, to models.CampStatus, reason *string) (*models.Camp, error) {
	camp, err := s.camps.GetByID(ctx, campID)
	if err != nil {
		return nil, models.Remote("get camp", err)
	}
	from := camp.Status
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s to %s", models.ErrInvalidTransition, from, to)
	}
	if err := s.camps.Transition(ctx, camp.ID, from, to, actorID, reason); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: camp changed concurrently", err)
		}
		return nil, models.Remote("update camp status", err)
	}
	camp.Status = to
	if to == models.CampStatusRejected {
		camp.RejectionReason = reason
	}

	log.Info().
		Str("camp_id", camp.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Camp status changed")

	s.notifyDoctor(ctx, camp, reason)
	if from == models.CampStatusApproved || to == models.CampStatusApproved {
		s.directory.RequestRefresh(ctx)
	}
	return camp, nil
}

func (s *CampService) notifyDoctor(ctx context.Context, camp *models.Camp, reason *string) {
	doctorUserID, err := s.profiles.GetUserIDByDoctorID(ctx, camp.DoctorID)
	if err != nil {
		log.Warn().Err(err).Str("camp_id", camp.ID).Msg("Failed to resolve camp organizer")
		return
	}

	data := map[string]any{"Title": camp.Title}
	if reason != nil {
		data["Reason"] = *reason
	}
	severity := models.SeverityNormal
	if camp.Status == models.CampStatusRejected || camp.Status == models.CampStatusCancelled {
		severity = models.SeverityDestructive
	}

	locale := i18n.LocaleFromContext(ctx)
	key := "camp." + string(camp.Status)
	s.notifier.Notify(ctx, doctorUserID, models.Notice{
		Title:    s.translator.T(locale, key+".title", nil),
		Message:  s.translator.T(locale, key+".message", data),
		Severity: severity,
		CampID:   &camp.ID,
	})
}
