package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"medcamp-backend/internal/i18n"
	"medcamp-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PaymentConfirmation is what the client reports after capturing a payment.
type PaymentConfirmation struct {
	Reference string `json:"reference"`
	Method    string `json:"method"`
}

// PaymentService records captured payments for paid registrations.
type PaymentService struct {
	registrations  RegistrationStore
	camps          CampStore
	notifier       Notifier
	translator     Translator
	commissionRate float64
	currency       string
	now            func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	registrations RegistrationStore,
	camps CampStore,
	notifier Notifier,
	translator Translator,
	commissionRate float64,
	currency string,
) *PaymentService {
	return &PaymentService{
		registrations:  registrations,
		camps:          camps,
		notifier:       notifier,
		translator:     translator,
		commissionRate: commissionRate,
		currency:       currency,
		now:            time.Now,
	}
}

// ConfirmPayment moves the caller's registration from pending to completed
// and records the platform commission split.
func (s *PaymentService) ConfirmPayment(ctx context.Context, identity *models.Identity, registrationID string, req PaymentConfirmation) (*models.Payment, error) {
	if identity == nil {
		return nil, models.ErrAuthRequired
	}
	if strings.TrimSpace(req.Reference) == "" {
		return nil, fmt.Errorf("%w: payment reference is required", models.ErrValidation)
	}

	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		return nil, models.Remote("get registration", err)
	}
	if reg.UserID != identity.UserID {
		return nil, models.ErrForbidden
	}
	if reg.AttendanceStatus == models.AttendanceCancelled {
		return nil, fmt.Errorf("%w: registration is cancelled", models.ErrConflict)
	}
	if reg.PaymentStatus == models.PaymentStatusCompleted {
		return nil, models.ErrPaymentAlreadyCompleted
	}

	commission := roundCents(reg.AmountPaid * s.commissionRate)
	now := s.now()
	payment := &models.Payment{
		ID:               uuid.New().String(),
		RegistrationID:   reg.ID,
		Amount:           reg.AmountPaid,
		CommissionAmount: commission,
		DoctorAmount:     roundCents(reg.AmountPaid - commission),
		Currency:         s.currency,
		PaymentMethod:    req.Method,
		Reference:        req.Reference,
		Status:           string(models.PaymentStatusCompleted),
		TransactionDate:  now,
		CreatedAt:        now,
	}
	if err := s.registrations.CompletePayment(ctx, payment); err != nil {
		return nil, models.Remote("complete payment", err)
	}

	log.Info().
		Str("user_id", identity.UserID).
		Str("registration_id", reg.ID).
		Str("payment_id", payment.ID).
		Float64("amount", payment.Amount).
		Msg("Payment recorded")

	title := reg.CampID
	if camp, err := s.camps.GetByID(ctx, reg.CampID); err == nil {
		title = camp.Title
	}
	locale := i18n.LocaleFromContext(ctx)
	s.notifier.Notify(ctx, identity.UserID, models.Notice{
		Title: s.translator.T(locale, "payment.completed.title", nil),
		Message: s.translator.T(locale, "payment.completed.message", map[string]any{
			"Amount":   strconv.FormatFloat(payment.Amount, 'f', 2, 64),
			"Currency": payment.Currency,
			"Title":    title,
		}),
		Severity: models.SeverityNormal,
		CampID:   &reg.CampID,
	})
	return payment, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
