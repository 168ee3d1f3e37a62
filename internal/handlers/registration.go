package handlers

import (
	"context"
	"net/http"

	"medcamp-backend/internal/middleware"
	"medcamp-backend/internal/models"
	"medcamp-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Registrar interface {
	Register(ctx context.Context, identity *models.Identity, campID string) (*models.RegistrationResult, error)
	Cancel(ctx context.Context, identity *models.Identity, campID string) (*models.Registration, error)
	ListMine(ctx context.Context, identity *models.Identity) ([]models.RegistrationView, error)
}

type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, identity *models.Identity, registrationID string, req services.PaymentConfirmation) (*models.Payment, error)
}

// RegistrationFailure is the body of a failed registration attempt
type RegistrationFailure struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
	Error   string `json:"error"`
}

// RegistrationHandler handles camp registration and payment requests
type RegistrationHandler struct {
	registrations Registrar
	payments      PaymentConfirmer
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrations Registrar, payments PaymentConfirmer) *RegistrationHandler {
	return &RegistrationHandler{
		registrations: registrations,
		payments:      payments,
	}
}

// Register handles POST /api/v1/camps/{camp_id}/registrations. The caller may
// be anonymous; the workflow decides what that means.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campID := chi.URLParam(r, "camp_id")

	result, err := h.registrations.Register(ctx, middleware.GetIdentity(ctx), campID)
	if err != nil {
		status, reason := statusFor(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Str("camp_id", campID).Msg("Registration failed")
			message = "Internal server error"
		}
		respondJSON(w, status, RegistrationFailure{
			Success: false,
			Reason:  reason,
			Error:   message,
		})
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// Cancel handles DELETE /api/v1/camps/{camp_id}/registrations
func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campID := chi.URLParam(r, "camp_id")

	reg, err := h.registrations.Cancel(ctx, middleware.GetIdentity(ctx), campID)
	if err != nil {
		respondServiceError(w, err, "Failed to cancel registration")
		return
	}

	respondJSON(w, http.StatusOK, reg)
}

// ListMine handles GET /api/v1/me/registrations
func (h *RegistrationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	regs, err := h.registrations.ListMine(ctx, middleware.GetIdentity(ctx))
	if err != nil {
		respondServiceError(w, err, "Failed to list registrations")
		return
	}
	if regs == nil {
		regs = []models.RegistrationView{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"registrations": regs})
}

// ConfirmPayment handles POST /api/v1/registrations/{registration_id}/payment
func (h *RegistrationHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)
	registrationID := chi.URLParam(r, "registration_id")

	var req services.PaymentConfirmation
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err, "Invalid payment request")
		return
	}

	payment, err := h.payments.ConfirmPayment(ctx, identity, registrationID, req)
	if err != nil {
		log.Warn().Err(err).Str("registration_id", registrationID).Msg("Payment confirmation rejected")
		respondServiceError(w, err, "Failed to confirm payment")
		return
	}

	respondJSON(w, http.StatusOK, payment)
}
